package listing

import (
	"io"

	"github.com/shopspring/decimal"
)

// CreateInput is the owner-supplied content of a new listing.
type CreateInput struct {
	Title        string          `json:"title" validate:"required,max=150"`
	Description  string          `json:"description" validate:"max=5000"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	City         string          `json:"city" validate:"required,max=100"`
	Address      string          `json:"address" validate:"max=255"`
	PropertyType string          `json:"property_type" validate:"required,oneof=apartment house villa land office shop garage other"`
	ListingType  string          `json:"listing_type" validate:"required,oneof=sale rent"`
	Bedrooms     int             `json:"bedrooms" validate:"gte=0,lte=50"`
	Bathrooms    int             `json:"bathrooms" validate:"gte=0,lte=50"`
	Area         float64         `json:"area" validate:"gte=0"`

	// Publish runs the publication flow right after the draft is stored.
	Publish bool `json:"publish"`
}

// Upload is one file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

const maxImagesPerListing = 20
