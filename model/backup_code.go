package model

import "time"

type BackupCode struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	AccountID uint       `gorm:"not null;index"`
	CodeHash  string     `gorm:"size:64;not null"`
	Used      bool       `gorm:"default:false;not null"`
	UsedAt    *time.Time `gorm:"default:null"`
	CreatedAt time.Time
}
