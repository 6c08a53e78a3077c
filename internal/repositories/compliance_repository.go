package repositories

import (
	"context"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/gorm"
)

type KeywordRepository interface {
	ListActive(ctx context.Context) ([]models.BlockedKeyword, error)
	List(ctx context.Context) ([]models.BlockedKeyword, error)
	Create(ctx context.Context, keyword *models.BlockedKeyword) error
	Delete(ctx context.Context, id uint) error
}

// ComplianceFlagRepository is append-only.
type ComplianceFlagRepository interface {
	Create(ctx context.Context, flag *models.ComplianceFlag) error
	List(ctx context.Context, offset, limit int) ([]models.ComplianceFlag, int64, error)
}

type keywordRepository struct {
	db *gorm.DB
}

func (r *keywordRepository) ListActive(ctx context.Context) ([]models.BlockedKeyword, error) {
	var kws []models.BlockedKeyword
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("keyword ASC").Find(&kws).Error
	return kws, dbError(err)
}

func (r *keywordRepository) List(ctx context.Context) ([]models.BlockedKeyword, error) {
	var kws []models.BlockedKeyword
	err := r.db.WithContext(ctx).Order("keyword ASC").Find(&kws).Error
	return kws, dbError(err)
}

func (r *keywordRepository) Create(ctx context.Context, keyword *models.BlockedKeyword) error {
	return dbError(r.db.WithContext(ctx).Create(keyword).Error)
}

func (r *keywordRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BlockedKeyword{}, id)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrKeywordNotFound
	}
	return nil
}

type complianceFlagRepository struct {
	db *gorm.DB
}

func (r *complianceFlagRepository) Create(ctx context.Context, flag *models.ComplianceFlag) error {
	return dbError(r.db.WithContext(ctx).Create(flag).Error)
}

func (r *complianceFlagRepository) List(ctx context.Context, offset, limit int) ([]models.ComplianceFlag, int64, error) {
	var flags []models.ComplianceFlag
	var total int64
	offset, limit = paginate(offset, limit)

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.ComplianceFlag{}).Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&flags).Error
	if err != nil {
		return nil, 0, dbError(err)
	}
	return flags, total, nil
}
