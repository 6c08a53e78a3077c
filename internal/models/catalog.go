package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ExtraFeatured = "featured"
	ExtraUrgent   = "urgent"
	ExtraBoost    = "boost"
)

func ValidExtraType(t string) bool {
	switch t {
	case ExtraFeatured, ExtraUrgent, ExtraBoost:
		return true
	}
	return false
}

type CreditPackage struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Credits   int             `gorm:"not null" json:"credits"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency  string          `gorm:"default:'EUR'" json:"currency"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type ExtraPackage struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	Type         string          `gorm:"not null;index" json:"type"`
	DurationDays int             `gorm:"not null;default:0" json:"duration_days"` // 0 = instantaneous
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency     string          `gorm:"default:'EUR'" json:"currency"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AdPackage struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	Placement    string          `gorm:"not null;index" json:"placement"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency     string          `gorm:"default:'EUR'" json:"currency"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Catalog is the public view of all purchasable packages.
type Catalog struct {
	Credits []CreditPackage `json:"credits"`
	Extras  []ExtraPackage  `json:"extras"`
	Ads     []AdPackage     `json:"ads"`
}
