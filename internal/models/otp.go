package models

import "time"

const (
	OTPPurposeRegister = "register"
	OTPPurposeReset    = "reset"
)

type OTPCode struct {
	ID        uint      `gorm:"primarykey"`
	Email     string    `gorm:"index:idx_otp_lookup,priority:1;not null"`
	Code      string    `gorm:"index:idx_otp_lookup,priority:2;size:6;not null"`
	Purpose   string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false;not null"`
	CreatedAt time.Time `gorm:"index"`
}
