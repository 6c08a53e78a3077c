// Package ads manages advertising banners. Banners start pending and go live for a
// package duration after payment or admin activation.
package ads

import (
	"context"
	"io"
	"strings"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/services/storage"
	"pronat/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Banner placements
const (
	PlacementHomeTop       = "home_top"
	PlacementSearchSidebar = "search_sidebar"
	PlacementListingDetail = "listing_detail"
)

type CreateInput struct {
	Title     string `json:"title" validate:"required,max=120"`
	LinkURL   string `json:"link_url" validate:"omitempty,url,max=500"`
	Placement string `json:"placement" validate:"required,oneof=home_top search_sidebar listing_detail"`
}

type Media struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service interface {
	Create(ctx context.Context, userID uint, in CreateInput, media *Media) (*models.Ad, error)
	GetOwned(ctx context.Context, userID, adID uint) (*models.Ad, error)

	// Activate makes the banner live from now for durationDays, replacing any previous window.
	Activate(ctx context.Context, store repositories.Store, adID uint, durationDays int, now time.Time) (*models.Ad, error)
	AdminActivate(ctx context.Context, adminID, adID uint, durationDays int) (*models.Ad, error)

	ListActive(ctx context.Context, placement string) ([]models.Ad, error)
}

type service struct {
	store     repositories.Store
	blobs     storage.BlobStore
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewService(store repositories.Store, blobs storage.BlobStore, publisher events.Publisher, log *zap.Logger) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{store: store, blobs: blobs, publisher: publisher, log: log, now: time.Now}
}

func (s *service) Create(ctx context.Context, userID uint, in CreateInput, media *Media) (*models.Ad, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	ad := &models.Ad{
		UserID:    userID,
		Title:     in.Title,
		LinkURL:   in.LinkURL,
		Placement: in.Placement,
		Status:    models.AdStatusPending,
	}
	if media != nil {
		if !storage.AllowedImage(media.ContentType) {
			return nil, appErrors.ValidationFields(map[string]string{"media": "only jpeg, png, webp and gif images are accepted"})
		}
		if media.Size > storage.MaxUploadBytes {
			return nil, appErrors.ValidationFields(map[string]string{"media": "file is too large"})
		}
		url, err := s.blobs.Upload(ctx, storage.ObjectKey("ads", userID, media.Filename), media.Body, media.ContentType)
		if err != nil {
			return nil, err
		}
		ad.MediaURL = url
	}

	if err := s.store.Ads().Create(ctx, ad); err != nil {
		return nil, err
	}
	s.log.Info("ad created", zap.Uint("ad_id", ad.ID), zap.Uint("user_id", userID))
	return ad, nil
}

func (s *service) GetOwned(ctx context.Context, userID, adID uint) (*models.Ad, error) {
	ad, err := s.store.Ads().GetByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.UserID != userID {
		return nil, appErrors.ErrNotOwner
	}
	return ad, nil
}

func (s *service) Activate(ctx context.Context, store repositories.Store, adID uint, durationDays int, now time.Time) (*models.Ad, error) {
	if durationDays <= 0 {
		return nil, appErrors.Validation("ad duration must be positive")
	}
	var ad *models.Ad
	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		var err error
		ad, err = tx.Ads().GetForUpdate(ctx, adID)
		if err != nil {
			return err
		}
		if ad.Status == models.AdStatusRejected {
			return appErrors.ErrInvalidTransition.WithMessage("rejected ads cannot be activated")
		}
		start := now
		end := now.AddDate(0, 0, durationDays)
		ad.Status = models.AdStatusActive
		ad.StartsAt = &start
		ad.EndsAt = &end
		return tx.Ads().SaveSchedule(ctx, ad)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ad activated", zap.Uint("ad_id", ad.ID), zap.Time("ends_at", *ad.EndsAt))
	return ad, nil
}

// AdminActivate runs a free activation and records it as a paid grant of zero.
func (s *service) AdminActivate(ctx context.Context, adminID, adID uint, durationDays int) (*models.Ad, error) {
	var ad *models.Ad
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		var err error
		ad, err = s.Activate(ctx, tx, adID, durationDays, s.now())
		if err != nil {
			return err
		}
		return tx.Transactions().Create(ctx, &models.Transaction{
			Kind:         models.TransactionKindAd,
			UserID:       ad.UserID,
			AdID:         &ad.ID,
			DurationDays: durationDays,
			AmountPaid:   decimal.Zero,
			Currency:     "EUR",
			Status:       models.TransactionStatusPaid,
			GrantedBy:    &adminID,
			Metadata:     models.JSON{"source": "admin_grant"},
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("ad activated by admin", zap.Uint("admin_id", adminID), zap.Uint("ad_id", adID))
	events.Emit(ctx, s.publisher, s.log, events.AdActivated, events.AdEvent{AdID: ad.ID, EndsAt: *ad.EndsAt})
	return ad, nil
}

func (s *service) ListActive(ctx context.Context, placement string) ([]models.Ad, error) {
	return s.store.Ads().ListActive(ctx, placement, s.now())
}
