package repositories

import (
	"context"

	"pronat/internal/models"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	SetTestingMode(ctx context.Context, enabled bool) error
}

type settingsRepository struct {
	db *gorm.DB
}

func (r *settingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	s := models.PlatformSettings{ID: models.PlatformSettingsID}
	if err := r.db.WithContext(ctx).FirstOrCreate(&s, models.PlatformSettingsID).Error; err != nil {
		return nil, dbError(err)
	}
	return &s, nil
}

func (r *settingsRepository) SetTestingMode(ctx context.Context, enabled bool) error {
	return dbError(r.db.WithContext(ctx).
		Model(&models.PlatformSettings{ID: models.PlatformSettingsID}).
		Update("testing_mode", enabled).Error)
}
