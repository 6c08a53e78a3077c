package repositories

import (
	"context"
	"time"

	"pronat/internal/models"

	"github.com/shopspring/decimal"
)

// PropertyFilter narrows the public search.
type PropertyFilter struct {
	City         string
	ListingType  string
	PropertyType string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	MinBedrooms  int
	Offset       int
	Limit        int
}

type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uint) (*models.Property, error)

	// GetForUpdate loads the listing holding a row lock until the transaction ends
	GetForUpdate(ctx context.Context, id uint) (*models.Property, error)

	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Property, int64, error)

	// Search returns active, unexpired listings in visibility order
	Search(ctx context.Context, filter PropertyFilter, now time.Time) ([]models.Property, int64, error)

	// Activate moves a draft to active. It reports false if the listing was no longer a draft.
	Activate(ctx context.Context, id uint, expiresAt time.Time) (bool, error)

	// TransitionStatus sets status to `to` only when the current status is `from`
	TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error)

	UpdateStatus(ctx context.Context, id uint, status string) error

	// SaveVisibility persists the featured, urgent and boost columns of property
	SaveVisibility(ctx context.Context, property *models.Property) error

	IncrementCounter(ctx context.Context, id uint, column string) error
	AppendImages(ctx context.Context, id uint, urls []string) error
}
