package repositories

import (
	"context"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/gorm"
)

type CatalogRepository interface {
	CreditPackage(ctx context.Context, id uint) (*models.CreditPackage, error)
	ExtraPackage(ctx context.Context, id uint) (*models.ExtraPackage, error)
	AdPackage(ctx context.Context, id uint) (*models.AdPackage, error)

	// Active lists every active package
	Active(ctx context.Context) (*models.Catalog, error)

	SaveCreditPackage(ctx context.Context, pkg *models.CreditPackage) error
	SaveExtraPackage(ctx context.Context, pkg *models.ExtraPackage) error
	SaveAdPackage(ctx context.Context, pkg *models.AdPackage) error
}

type catalogRepository struct {
	db *gorm.DB
}

func (r *catalogRepository) CreditPackage(ctx context.Context, id uint) (*models.CreditPackage, error) {
	var pkg models.CreditPackage
	if err := r.active(ctx).First(&pkg, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrPackageNotFound)
	}
	return &pkg, nil
}

func (r *catalogRepository) ExtraPackage(ctx context.Context, id uint) (*models.ExtraPackage, error) {
	var pkg models.ExtraPackage
	if err := r.active(ctx).First(&pkg, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrPackageNotFound)
	}
	return &pkg, nil
}

func (r *catalogRepository) AdPackage(ctx context.Context, id uint) (*models.AdPackage, error) {
	var pkg models.AdPackage
	if err := r.active(ctx).First(&pkg, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrPackageNotFound)
	}
	return &pkg, nil
}

func (r *catalogRepository) Active(ctx context.Context) (*models.Catalog, error) {
	var c models.Catalog
	if err := r.active(ctx).Order("price ASC").Find(&c.Credits).Error; err != nil {
		return nil, dbError(err)
	}
	if err := r.active(ctx).Order("type ASC, price ASC").Find(&c.Extras).Error; err != nil {
		return nil, dbError(err)
	}
	if err := r.active(ctx).Order("placement ASC, price ASC").Find(&c.Ads).Error; err != nil {
		return nil, dbError(err)
	}
	return &c, nil
}

func (r *catalogRepository) SaveCreditPackage(ctx context.Context, pkg *models.CreditPackage) error {
	return dbError(r.db.WithContext(ctx).Save(pkg).Error)
}

func (r *catalogRepository) SaveExtraPackage(ctx context.Context, pkg *models.ExtraPackage) error {
	return dbError(r.db.WithContext(ctx).Save(pkg).Error)
}

func (r *catalogRepository) SaveAdPackage(ctx context.Context, pkg *models.AdPackage) error {
	return dbError(r.db.WithContext(ctx).Save(pkg).Error)
}

func (r *catalogRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("is_active = ?", true)
}
