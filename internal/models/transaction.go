package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds
const (
	TransactionKindCredit = "credit"
	TransactionKindExtra  = "extra"
	TransactionKindAd     = "ad"
)

// Transaction statuses
const (
	TransactionStatusPending  = "pending"
	TransactionStatusPaid     = "paid"
	TransactionStatusFailed   = "failed"
	TransactionStatusRefunded = "refunded"
)

// Transaction is an append-only ledger entry for credit, extra and ad purchases or grants.
type Transaction struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	Kind             string          `gorm:"not null;index" json:"kind"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	PropertyID       *uint           `gorm:"index" json:"property_id,omitempty"`
	AdID             *uint           `json:"ad_id,omitempty"`
	PackageID        *uint           `json:"package_id,omitempty"`
	Credits          int             `gorm:"default:0" json:"credits,omitempty"`
	ExtraType        string          `json:"extra_type,omitempty"`
	DurationDays     int             `gorm:"default:0" json:"duration_days,omitempty"`
	AmountPaid       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"amount_paid"`
	Currency         string          `gorm:"default:'EUR'" json:"currency"`
	Status           string          `gorm:"not null;default:'pending'" json:"status"`
	PaymentReference *string         `gorm:"uniqueIndex" json:"payment_reference,omitempty"` // webhook idempotency key
	GrantedBy        *uint           `json:"granted_by,omitempty"`
	Metadata         JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
