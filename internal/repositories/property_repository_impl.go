package repositories

import (
	"context"
	"fmt"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter columns accepted by IncrementCounter.
const (
	CounterViews    = "views_count"
	CounterContacts = "contacts_count"
)

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	return dbError(r.db.WithContext(ctx).Create(property).Error)
}

func (r *propertyRepository) GetByID(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrPropertyNotFound)
	}
	return &p, nil
}

func (r *propertyRepository) GetForUpdate(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, notFound(err, appErrors.ErrPropertyNotFound)
	}
	return &p, nil
}

func (r *propertyRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Property, int64, error) {
	var props []models.Property
	var total int64
	offset, limit = paginate(offset, limit)

	q := r.db.WithContext(ctx).Model(&models.Property{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&props).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return props, total, nil
}

func (r *propertyRepository) Search(ctx context.Context, f PropertyFilter, now time.Time) ([]models.Property, int64, error) {
	var props []models.Property
	var total int64
	offset, limit := paginate(f.Offset, f.Limit)

	q := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("status = ? AND expires_at > ?", models.PropertyStatusActive, now)
	if f.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", f.City)
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", f.MinBedrooms)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	err := q.Clauses(clause.OrderBy{
		Expression: clause.Expr{
			SQL: "(is_featured AND featured_until > ?) DESC, (is_urgent AND urgent_until > ?) DESC, " +
				"last_boosted_at DESC NULLS LAST, created_at DESC",
			Vars:               []interface{}{now, now},
			WithoutParentheses: true,
		},
	}).Offset(offset).Limit(limit).Find(&props).Error
	if err != nil {
		return nil, 0, dbError(err)
	}
	return props, total, nil
}

func (r *propertyRepository) Activate(ctx context.Context, id uint, expiresAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND status = ?", id, models.PropertyStatusDraft).
		Updates(map[string]interface{}{
			"status":     models.PropertyStatusActive,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *propertyRepository) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *propertyRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrPropertyNotFound
	}
	return nil
}

func (r *propertyRepository) SaveVisibility(ctx context.Context, p *models.Property) error {
	result := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"is_featured":     p.IsFeatured,
			"featured_until":  p.FeaturedUntil,
			"is_urgent":       p.IsUrgent,
			"urgent_until":    p.UrgentUntil,
			"last_boosted_at": p.LastBoostedAt,
		})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrPropertyNotFound
	}
	return nil
}

func (r *propertyRepository) IncrementCounter(ctx context.Context, id uint, column string) error {
	if column != CounterViews && column != CounterContacts {
		return fmt.Errorf("unknown counter column %q", column)
	}
	result := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND status = ?", id, models.PropertyStatusActive).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrPropertyNotFound
	}
	return nil
}

func (r *propertyRepository) AppendImages(ctx context.Context, id uint, urls []string) error {
	result := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).
		UpdateColumn("images", gorm.Expr("COALESCE(images, '{}') || ?::text[]", pq.StringArray(urls)))
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrPropertyNotFound
	}
	return nil
}
