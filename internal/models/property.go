package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	PropertyStatusDraft    = "draft"
	PropertyStatusActive   = "active"
	PropertyStatusBlocked  = "blocked"
	PropertyStatusSold     = "sold"
	PropertyStatusRented   = "rented"
	PropertyStatusArchived = "archived"
)

const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

type Property struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Title         string          `gorm:"not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Currency      string          `gorm:"default:'EUR'" json:"currency"`
	City          string          `gorm:"index" json:"city"`
	Address       string          `json:"address"`
	PropertyType  string          `gorm:"index" json:"property_type"`
	ListingType   string          `gorm:"index;not null" json:"listing_type"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     int             `json:"bathrooms"`
	Area          float64         `json:"area"`
	Images        pq.StringArray  `gorm:"type:text[]" json:"images"`
	Status        string          `gorm:"not null;default:'draft';index" json:"status"`
	IsFeatured    bool            `gorm:"default:false" json:"is_featured"`
	FeaturedUntil *time.Time      `json:"featured_until,omitempty"`
	IsUrgent      bool            `gorm:"default:false" json:"is_urgent"`
	UrgentUntil   *time.Time      `json:"urgent_until,omitempty"`
	LastBoostedAt *time.Time      `gorm:"index" json:"last_boosted_at,omitempty"`
	ExpiresAt     *time.Time      `gorm:"index" json:"expires_at,omitempty"`
	ViewsCount    int             `gorm:"default:0" json:"views_count"`
	ContactsCount int             `gorm:"default:0" json:"contacts_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FeaturedActive reports whether the featured flag is backed by a live expiry.
func (p *Property) FeaturedActive(now time.Time) bool {
	return p.IsFeatured && p.FeaturedUntil != nil && p.FeaturedUntil.After(now)
}

// UrgentActive reports whether the urgent flag is backed by a live expiry.
func (p *Property) UrgentActive(now time.Time) bool {
	return p.IsUrgent && p.UrgentUntil != nil && p.UrgentUntil.After(now)
}

func (p *Property) OwnedBy(userID uint) bool {
	return p.UserID == userID
}

func ValidPropertyStatus(s string) bool {
	switch s {
	case PropertyStatusDraft, PropertyStatusActive, PropertyStatusBlocked,
		PropertyStatusSold, PropertyStatusRented, PropertyStatusArchived:
		return true
	}
	return false
}
