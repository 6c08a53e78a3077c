package events

import "time"

type ListingEvent struct {
	PropertyID uint      `json:"property_id"`
	UserID     uint      `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	Keyword    string    `json:"keyword,omitempty"`
}

type UserEvent struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type CreditsEvent struct {
	UserID  uint `json:"user_id"`
	Credits int  `json:"credits"`
}

type ExtraEvent struct {
	PropertyID uint      `json:"property_id"`
	Type       string    `json:"type"`
	Until      time.Time `json:"until"`
}

type AdEvent struct {
	AdID   uint      `json:"ad_id"`
	EndsAt time.Time `json:"ends_at"`
}

type PaymentEvent struct {
	Reference    string `json:"reference"`
	PurchaseType string `json:"purchase_type"`
	UserID       uint   `json:"user_id"`
}
