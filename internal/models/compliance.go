package models

import "time"

type BlockedKeyword struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Keyword   string    `gorm:"uniqueIndex;not null" json:"keyword"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ComplianceFlag is an append-only audit row written when listing content matches a blocked keyword.
type ComplianceFlag struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	PropertyID     *uint     `gorm:"index" json:"property_id,omitempty"`
	MatchedKeyword string    `gorm:"not null" json:"matched_keyword"`
	Reason         string    `gorm:"type:text" json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
