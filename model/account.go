package model

import (
	"time"

	"gorm.io/gorm"
)

// Account stores the login identity and its MFA flag
type Account struct {
	ID          uint         `gorm:"primarykey"`
	Username    string       `gorm:"uniqueIndex;size:32;not null"`
	Email       string       `gorm:"uniqueIndex;size:256;not null"`
	Password    string       `gorm:"size:64;not null"`
	MfaEnabled  bool         `gorm:"default:false;not null"`
	MfaFactor   *MfaFactor   `gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	BackupCodes []BackupCode `gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == 0 {
		a.ID = GenerateID()
	}
	return nil
}
