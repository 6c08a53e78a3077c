package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserStatusActive    = "active"
	UserStatusBlocked   = "blocked"
	UserStatusSuspended = "suspended"
)

type User struct {
	gorm.Model
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone            *string    `gorm:"uniqueIndex" json:"phone,omitempty"` // NULLs do not collide
	FullName         string     `json:"full_name"`
	Password         string     `gorm:"not null" json:"-"`
	HasPassword      bool       `gorm:"default:false" json:"has_password"`
	EmailConfirmed   bool       `gorm:"default:false" json:"email_confirmed"`
	Role             string     `gorm:"default:'user'" json:"role"`
	Status           string     `gorm:"default:'active';index" json:"status"`
	CreditsRemaining int        `gorm:"not null;default:0;check:credits_remaining >= 0" json:"credits_remaining"`
	TokenVersion     int        `gorm:"default:1" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

func ValidUserStatus(s string) bool {
	switch s {
	case UserStatusActive, UserStatusBlocked, UserStatusSuspended:
		return true
	}
	return false
}
