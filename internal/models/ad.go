package models

import "time"

const (
	AdStatusPending  = "pending"
	AdStatusActive   = "active"
	AdStatusExpired  = "expired"
	AdStatusRejected = "rejected"
)

type Ad struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Title     string     `gorm:"not null" json:"title"`
	LinkURL   string     `json:"link_url"`
	MediaURL  string     `json:"media_url"`
	Placement string     `gorm:"not null;index" json:"placement"`
	Status    string     `gorm:"not null;default:'pending';index" json:"status"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `gorm:"index" json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (a *Ad) LiveAt(now time.Time) bool {
	return a.Status == AdStatusActive && a.EndsAt != nil && a.EndsAt.After(now)
}
