package payment

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"github.com/shopspring/decimal"
)

// Purchase types carried in checkout metadata
const (
	PurchaseCredits = "credits"
	PurchaseExtra   = "extra"
	PurchaseAd      = "ad"
)

// Metadata keys
const (
	metaPurchaseType = "purchase_type"
	metaUserID       = "user_id"
	metaPropertyID   = "property_id"
	metaAdID         = "ad_id"
	metaPackageID    = "package_id"
	metaAmount       = "amount"
	metaCurrency     = "currency"
	metaDurationDays = "duration_days"
	metaCredits      = "credits"
	metaExtraType    = "extra_type"
)

// PurchaseMetadata travels with a checkout session and comes back on the
// completion event. It is the only source of truth for what was bought.
type PurchaseMetadata struct {
	PurchaseType string
	UserID       uint
	PropertyID   *uint
	AdID         *uint
	PackageID    uint
	Amount       decimal.Decimal
	Currency     string
	DurationDays int
	Credits      int
	ExtraType    string
}

func (m PurchaseMetadata) Encode() map[string]string {
	out := map[string]string{
		metaPurchaseType: m.PurchaseType,
		metaUserID:       strconv.FormatUint(uint64(m.UserID), 10),
		metaPackageID:    strconv.FormatUint(uint64(m.PackageID), 10),
		metaAmount:       m.Amount.StringFixed(2),
		metaCurrency:     m.Currency,
	}
	if m.PropertyID != nil {
		out[metaPropertyID] = strconv.FormatUint(uint64(*m.PropertyID), 10)
	}
	if m.AdID != nil {
		out[metaAdID] = strconv.FormatUint(uint64(*m.AdID), 10)
	}
	switch m.PurchaseType {
	case PurchaseCredits:
		out[metaCredits] = strconv.Itoa(m.Credits)
	case PurchaseExtra:
		out[metaExtraType] = m.ExtraType
		out[metaDurationDays] = strconv.Itoa(m.DurationDays)
	case PurchaseAd:
		out[metaDurationDays] = strconv.Itoa(m.DurationDays)
	}
	return out
}

// DecodeMetadata parses event metadata, requiring every field the purchase type needs.
func DecodeMetadata(raw map[string]string) (*PurchaseMetadata, error) {
	d := decoder{raw: raw}
	m := &PurchaseMetadata{
		PurchaseType: d.str(metaPurchaseType),
		UserID:       d.id(metaUserID),
		PackageID:    d.id(metaPackageID),
		Amount:       d.amount(metaAmount),
		Currency:     strings.ToUpper(d.str(metaCurrency)),
	}

	switch m.PurchaseType {
	case PurchaseCredits:
		m.Credits = d.positiveInt(metaCredits)
	case PurchaseExtra:
		id := d.id(metaPropertyID)
		m.PropertyID = &id
		m.ExtraType = d.str(metaExtraType)
		if d.err == nil && !models.ValidExtraType(m.ExtraType) {
			d.fail("%s %q is not a known extra", metaExtraType, m.ExtraType)
		}
		m.DurationDays = d.int(metaDurationDays)
		if d.err == nil && m.ExtraType != models.ExtraBoost && m.DurationDays <= 0 {
			d.fail("%s must be positive for %s", metaDurationDays, m.ExtraType)
		}
	case PurchaseAd:
		id := d.id(metaAdID)
		m.AdID = &id
		m.DurationDays = d.positiveInt(metaDurationDays)
	default:
		if d.err == nil {
			d.fail("unknown %s %q", metaPurchaseType, m.PurchaseType)
		}
	}

	if d.err != nil {
		return nil, d.err
	}
	return m, nil
}

// decoder records the first failure and turns later reads into no-ops.
type decoder struct {
	raw map[string]string
	err error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = appErrors.ErrInvalidMetadata.WithMessage("invalid payment metadata: " + fmt.Sprintf(format, args...))
	}
}

func (d *decoder) str(key string) string {
	if d.err != nil {
		return ""
	}
	v := strings.TrimSpace(d.raw[key])
	if v == "" {
		d.fail("missing %s", key)
	}
	return v
}

func (d *decoder) int(key string) int {
	v := d.str(key)
	if d.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		d.fail("%s must be a non-negative integer", key)
		return 0
	}
	return n
}

func (d *decoder) positiveInt(key string) int {
	n := d.int(key)
	if d.err == nil && n == 0 {
		d.fail("%s must be positive", key)
	}
	return n
}

func (d *decoder) id(key string) uint {
	v := d.str(key)
	if d.err != nil {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		d.fail("%s must be a positive id", key)
		return 0
	}
	return uint(n)
}

func (d *decoder) amount(key string) decimal.Decimal {
	v := d.str(key)
	if d.err != nil {
		return decimal.Zero
	}
	a, err := decimal.NewFromString(v)
	if err != nil || a.IsNegative() {
		d.fail("%s must be a non-negative decimal", key)
		return decimal.Zero
	}
	return a
}
