// Package listing owns the listing lifecycle: drafts, credit-gated publication
// behind the compliance screen, owner status changes and public search.
package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/services/compliance"
	"pronat/internal/services/credit"
	"pronat/internal/services/notification"
	"pronat/internal/services/settings"
	"pronat/internal/services/storage"
	"pronat/internal/validation"

	"go.uber.org/zap"
)

// DefaultLifetime is how long a listing stays visible after publication.
const DefaultLifetime = 90 * 24 * time.Hour

type Service interface {
	CreateDraft(ctx context.Context, userID uint, in CreateInput) (*models.Property, error)
	Publish(ctx context.Context, userID, propertyID uint) (*models.Property, error)

	// SetStatus lets the owner mark an active listing sold, rented or archived.
	SetStatus(ctx context.Context, userID, propertyID uint, status string) (*models.Property, error)
	AdminSetStatus(ctx context.Context, adminID, propertyID uint, status string) (*models.Property, error)

	// Get returns a publicly visible listing.
	Get(ctx context.Context, propertyID uint) (*models.Property, error)
	GetOwned(ctx context.Context, userID, propertyID uint) (*models.Property, error)
	ListMine(ctx context.Context, userID uint, offset, limit int) ([]models.Property, int64, error)
	Search(ctx context.Context, filter repositories.PropertyFilter) ([]models.Property, int64, error)

	RecordView(ctx context.Context, propertyID uint) error
	RecordContact(ctx context.Context, propertyID uint) error
	AddImages(ctx context.Context, userID, propertyID uint, uploads []Upload) (*models.Property, error)
}

type Deps struct {
	Store      repositories.Store
	Compliance compliance.Service
	Credits    credit.Service
	Settings   settings.Service
	Blobs      storage.BlobStore
	Mailer     notification.Mailer
	Publisher  events.Publisher
	Log        *zap.Logger
	Lifetime   time.Duration
}

type service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) Service {
	if d.Lifetime <= 0 {
		d.Lifetime = DefaultLifetime
	}
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	return &service{Deps: d, now: time.Now}
}

func (s *service) CreateDraft(ctx context.Context, userID uint, in CreateInput) (*models.Property, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, appErrors.ValidationFields(map[string]string{"price": "must not be negative"})
	}
	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "EUR"
	}

	prop := &models.Property{
		UserID:       userID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		Currency:     currency,
		City:         strings.TrimSpace(in.City),
		Address:      strings.TrimSpace(in.Address),
		PropertyType: in.PropertyType,
		ListingType:  in.ListingType,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		Area:         in.Area,
		Status:       models.PropertyStatusDraft,
	}
	if err := s.Store.Properties().Create(ctx, prop); err != nil {
		return nil, err
	}
	s.Log.Info("draft created", zap.Uint("user_id", userID), zap.Uint("property_id", prop.ID))

	if !in.Publish {
		return prop, nil
	}

	owner, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return prop, err
	}
	published, err := s.publish(ctx, userID, prop.ID, owner.FullName)
	if err != nil {
		return prop, err
	}
	return published, nil
}

func (s *service) Publish(ctx context.Context, userID, propertyID uint) (*models.Property, error) {
	return s.publish(ctx, userID, propertyID)
}

func (s *service) publish(ctx context.Context, userID, propertyID uint, extraTexts ...string) (*models.Property, error) {
	prop, err := s.Store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.OwnedBy(userID) {
		return nil, appErrors.ErrNotOwner
	}
	if prop.Status != models.PropertyStatusDraft {
		return nil, appErrors.ErrInvalidTransition
	}
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked() {
		return nil, appErrors.ErrAccountBlocked
	}

	testing, err := s.Settings.TestingMode(ctx)
	if err != nil {
		return nil, err
	}
	if !testing && user.CreditsRemaining <= 0 {
		return nil, appErrors.ErrInsufficientCredits
	}

	if err := s.screen(ctx, user, prop, extraTexts); err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.Lifetime)
	err = s.Store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		ok, err := tx.Properties().Activate(ctx, prop.ID, expiresAt)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.ErrInvalidTransition
		}
		if testing {
			return nil
		}
		// Debit last: losing a concurrent race rolls the activation back.
		return s.Credits.Debit(ctx, tx, userID)
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrInsufficientCredits) {
			s.Log.Info("publish lost credit race", zap.Uint("user_id", userID), zap.Uint("property_id", prop.ID))
		}
		return nil, err
	}

	prop.Status = models.PropertyStatusActive
	prop.ExpiresAt = &expiresAt
	s.Log.Info("listing published",
		zap.Uint("user_id", userID),
		zap.Uint("property_id", prop.ID),
		zap.Bool("testing_mode", testing),
		zap.Time("expires_at", expiresAt),
	)
	events.Emit(ctx, s.Publisher, s.Log, events.ListingPublished, events.ListingEvent{
		PropertyID: prop.ID, UserID: userID, ExpiresAt: expiresAt,
	})
	return prop, nil
}

// screen commits the blocking bundle on a match before reporting the violation.
func (s *service) screen(ctx context.Context, user *models.User, prop *models.Property, extraTexts []string) error {
	subject := compliance.Subject{
		UserID:     user.ID,
		PropertyID: &prop.ID,
		Texts:      append([]string{prop.Title, prop.Description}, extraTexts...),
	}

	var violation *compliance.Violation
	err := s.Store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		err := s.Compliance.Screen(ctx, tx, subject)
		if errors.As(err, &violation) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if violation == nil {
		return nil
	}

	events.Emit(ctx, s.Publisher, s.Log, events.ListingBlocked, events.ListingEvent{
		PropertyID: prop.ID, UserID: user.ID, Keyword: violation.Keyword,
	})
	if s.Mailer != nil {
		subj, body := notification.AccountBlockedEmail(user.FullName)
		if err := s.Mailer.Send(ctx, user.Email, subj, body); err != nil {
			s.Log.Warn("blocked-account notice not delivered", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}
	return violation
}

var ownerStatuses = []string{models.PropertyStatusSold, models.PropertyStatusRented, models.PropertyStatusArchived}

func (s *service) SetStatus(ctx context.Context, userID, propertyID uint, status string) (*models.Property, error) {
	v := validation.New()
	v.In("status", status, ownerStatuses...)
	if err := v.Err(); err != nil {
		return nil, err
	}
	prop, err := s.Store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.OwnedBy(userID) {
		return nil, appErrors.ErrNotOwner
	}
	ok, err := s.Store.Properties().TransitionStatus(ctx, propertyID, models.PropertyStatusActive, status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.ErrInvalidTransition
	}
	prop.Status = status
	return prop, nil
}

func (s *service) AdminSetStatus(ctx context.Context, adminID, propertyID uint, status string) (*models.Property, error) {
	v := validation.New()
	v.In("status", status, append([]string{models.PropertyStatusBlocked}, ownerStatuses...)...)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.Store.Properties().UpdateStatus(ctx, propertyID, status); err != nil {
		return nil, err
	}
	s.Log.Info("listing status changed by admin",
		zap.Uint("admin_id", adminID),
		zap.Uint("property_id", propertyID),
		zap.String("status", status),
	)
	return s.Store.Properties().GetByID(ctx, propertyID)
}

func (s *service) Get(ctx context.Context, propertyID uint) (*models.Property, error) {
	prop, err := s.Store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.Status != models.PropertyStatusActive || prop.ExpiresAt == nil || !prop.ExpiresAt.After(s.now()) {
		return nil, appErrors.ErrPropertyNotFound
	}
	return prop, nil
}

func (s *service) GetOwned(ctx context.Context, userID, propertyID uint) (*models.Property, error) {
	prop, err := s.Store.Properties().GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.OwnedBy(userID) {
		return nil, appErrors.ErrNotOwner
	}
	return prop, nil
}

func (s *service) ListMine(ctx context.Context, userID uint, offset, limit int) ([]models.Property, int64, error) {
	return s.Store.Properties().ListByUser(ctx, userID, offset, limit)
}

func (s *service) Search(ctx context.Context, filter repositories.PropertyFilter) ([]models.Property, int64, error) {
	return s.Store.Properties().Search(ctx, filter, s.now())
}

func (s *service) RecordView(ctx context.Context, propertyID uint) error {
	return s.Store.Properties().IncrementCounter(ctx, propertyID, repositories.CounterViews)
}

func (s *service) RecordContact(ctx context.Context, propertyID uint) error {
	return s.Store.Properties().IncrementCounter(ctx, propertyID, repositories.CounterContacts)
}

func (s *service) AddImages(ctx context.Context, userID, propertyID uint, uploads []Upload) (*models.Property, error) {
	prop, err := s.GetOwned(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, appErrors.ValidationFields(map[string]string{"images": "at least one file is required"})
	}
	if len(prop.Images)+len(uploads) > maxImagesPerListing {
		return nil, appErrors.ValidationFields(map[string]string{"images": "too many images for one listing"})
	}
	for _, u := range uploads {
		if !storage.AllowedImage(u.ContentType) {
			return nil, appErrors.ValidationFields(map[string]string{"images": "only jpeg, png, webp and gif images are accepted"})
		}
		if u.Size > storage.MaxUploadBytes {
			return nil, appErrors.ValidationFields(map[string]string{"images": "file is too large"})
		}
	}

	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.Blobs.Upload(ctx, storage.ObjectKey("properties", prop.ID, u.Filename), u.Body, u.ContentType)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	if err := s.Store.Properties().AppendImages(ctx, prop.ID, urls); err != nil {
		return nil, err
	}
	prop.Images = append(prop.Images, urls...)
	return prop, nil
}
