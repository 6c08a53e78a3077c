package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// EventCheckoutCompleted is the only provider event that changes state.
const EventCheckoutCompleted = "checkout.completed"

type LineItem struct {
	Name     string
	Amount   decimal.Decimal
	Currency string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified provider notification reduced to what the platform needs.
type WebhookEvent struct {
	ID               string
	Type             string
	PaymentReference string
	Metadata         map[string]string
	AmountTotal      int64 // minor units
	Currency         string
}

// Provider hides the payment processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, item LineItem, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error)

	// ParseWebhook verifies the signature and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// MinorUnits converts an amount to cents.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts a provider amount in cents back to a decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
