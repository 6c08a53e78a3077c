// Package extras applies paid visibility boosts (featured, urgent, boost) to listings.
// Admin grants and confirmed payments both end in Apply.
package extras

import (
	"context"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Activation describes one extra to apply.
type Activation struct {
	PropertyID   uint
	Type         string
	DurationDays int

	// Record, when set, is appended to the ledger after the listing is updated.
	Record *models.Transaction
}

type Service interface {
	// Apply locks the listing row through store and sets the extra. A new
	// featured or urgent expiry replaces the old one instead of extending it.
	// Callers publish the ExtraActivated event after their transaction commits.
	Apply(ctx context.Context, store repositories.Store, a Activation, now time.Time) (*models.Property, error)

	AdminGrant(ctx context.Context, adminID, propertyID uint, extraType string, durationDays int) (*models.Property, error)
}

type service struct {
	store     repositories.Store
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store repositories.Store, publisher events.Publisher, log *zap.Logger) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{store: store, publisher: publisher, log: log, now: time.Now}
}

// Validate checks the type and duration of an extra.
func Validate(extraType string, durationDays int) error {
	if !models.ValidExtraType(extraType) {
		return appErrors.ErrInvalidExtra.WithMessage("unknown extra type")
	}
	if extraType != models.ExtraBoost && durationDays <= 0 {
		return appErrors.ErrInvalidExtra.WithMessage("featured and urgent extras need a positive duration")
	}
	if durationDays < 0 {
		return appErrors.ErrInvalidExtra.WithMessage("duration must not be negative")
	}
	return nil
}

func (s *service) Apply(ctx context.Context, store repositories.Store, a Activation, now time.Time) (*models.Property, error) {
	if err := Validate(a.Type, a.DurationDays); err != nil {
		return nil, err
	}

	var prop *models.Property
	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		var err error
		prop, err = tx.Properties().GetForUpdate(ctx, a.PropertyID)
		if err != nil {
			return err
		}

		until := now.AddDate(0, 0, a.DurationDays)
		switch a.Type {
		case models.ExtraFeatured:
			prop.IsFeatured = true
			prop.FeaturedUntil = &until
		case models.ExtraUrgent:
			prop.IsUrgent = true
			prop.UrgentUntil = &until
		case models.ExtraBoost:
			boosted := now
			prop.LastBoostedAt = &boosted
		}
		if err := tx.Properties().SaveVisibility(ctx, prop); err != nil {
			return err
		}

		if a.Record == nil {
			return nil
		}
		a.Record.Kind = models.TransactionKindExtra
		a.Record.PropertyID = &prop.ID
		a.Record.ExtraType = a.Type
		a.Record.DurationDays = a.DurationDays
		if a.Record.UserID == 0 {
			a.Record.UserID = prop.UserID
		}
		return tx.Transactions().Create(ctx, a.Record)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("extra applied",
		zap.Uint("property_id", prop.ID),
		zap.String("type", a.Type),
		zap.Int("duration_days", a.DurationDays),
	)
	return prop, nil
}

func (s *service) AdminGrant(ctx context.Context, adminID, propertyID uint, extraType string, durationDays int) (*models.Property, error) {
	if err := Validate(extraType, durationDays); err != nil {
		return nil, err
	}
	prop, err := s.store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.Status != models.PropertyStatusActive {
		return nil, appErrors.ErrInvalidTransition.WithMessage("extras can only be granted on active listings")
	}

	record := &models.Transaction{
		UserID:     prop.UserID,
		AmountPaid: decimal.Zero,
		Currency:   "EUR",
		Status:     models.TransactionStatusPaid,
		GrantedBy:  &adminID,
		Metadata:   models.JSON{"source": "admin_grant"},
	}
	now := s.now()
	prop, err = s.Apply(ctx, s.store, Activation{
		PropertyID:   propertyID,
		Type:         extraType,
		DurationDays: durationDays,
		Record:       record,
	}, now)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.publisher, s.log, events.ExtraActivated, ExtraEvent(prop.ID, extraType, durationDays, now))
	return prop, nil
}

// ExtraEvent builds the event published once an extra is committed.
func ExtraEvent(propertyID uint, extraType string, durationDays int, now time.Time) events.ExtraEvent {
	return events.ExtraEvent{PropertyID: propertyID, Type: extraType, Until: now.AddDate(0, 0, durationDays)}
}
