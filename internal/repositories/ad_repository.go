package repositories

import (
	"context"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdRepository interface {
	Create(ctx context.Context, ad *models.Ad) error
	GetByID(ctx context.Context, id uint) (*models.Ad, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Ad, error)

	// SaveSchedule persists status, starts_at and ends_at
	SaveSchedule(ctx context.Context, ad *models.Ad) error

	ListActive(ctx context.Context, placement string, now time.Time) ([]models.Ad, error)
}

type adRepository struct {
	db *gorm.DB
}

func (r *adRepository) Create(ctx context.Context, ad *models.Ad) error {
	return dbError(r.db.WithContext(ctx).Create(ad).Error)
}

func (r *adRepository) GetByID(ctx context.Context, id uint) (*models.Ad, error) {
	var ad models.Ad
	if err := r.db.WithContext(ctx).First(&ad, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrAdNotFound)
	}
	return &ad, nil
}

func (r *adRepository) GetForUpdate(ctx context.Context, id uint) (*models.Ad, error) {
	var ad models.Ad
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&ad, id).Error
	if err != nil {
		return nil, notFound(err, appErrors.ErrAdNotFound)
	}
	return &ad, nil
}

func (r *adRepository) SaveSchedule(ctx context.Context, ad *models.Ad) error {
	result := r.db.WithContext(ctx).Model(&models.Ad{}).Where("id = ?", ad.ID).
		Updates(map[string]interface{}{
			"status":    ad.Status,
			"starts_at": ad.StartsAt,
			"ends_at":   ad.EndsAt,
		})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrAdNotFound
	}
	return nil
}

func (r *adRepository) ListActive(ctx context.Context, placement string, now time.Time) ([]models.Ad, error) {
	var ads []models.Ad
	q := r.db.WithContext(ctx).Where("status = ? AND ends_at > ?", models.AdStatusActive, now)
	if placement != "" {
		q = q.Where("placement = ?", placement)
	}
	err := q.Order("starts_at DESC").Find(&ads).Error
	return ads, dbError(err)
}
