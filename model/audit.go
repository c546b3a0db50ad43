package model

import "time"

type AuditEvent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AccountID uint      `gorm:"index;not null"`         // internal account id, 0 when unknown
	Username  string    `gorm:"size:64;not null;index"` // snapshot of username at event time
	EventType string    `gorm:"size:64;not null;index"` // login_success, mfa_enabled...
	Method    string    `gorm:"size:32;index"`          // password, totp, backup_code (optional)
	Reason    string    `gorm:"size:512"`               // failure reason or context
	IP        string    `gorm:"size:45;not null"`       // IPv4/IPv6
	UserAgent string    `gorm:"size:512;not null"`      // user agent string
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditEvent) TableName() string {
	return "audit"
}
