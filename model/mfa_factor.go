package model

import "time"

// MfaFactor holds the encrypted TOTP secret of an account. IsActive is only
// set after the first successful verification.
type MfaFactor struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	AccountID  uint       `gorm:"not null;uniqueIndex"`
	Secret     string     `gorm:"size:255;not null"`
	IsActive   bool       `gorm:"default:false;not null"`
	VerifiedAt *time.Time `gorm:"default:null"`
	CreatedAt  time.Time
}
