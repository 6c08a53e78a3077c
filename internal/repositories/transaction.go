package repositories

import (
	"context"

	"pronat/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository is append-only.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error

	// CreateOnce inserts tx unless a row with the same payment reference exists.
	// It reports false for a duplicate.
	CreateOnce(ctx context.Context, tx *models.Transaction) (bool, error)

	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return dbError(r.db.WithContext(ctx).Create(tx).Error)
}

func (r *transactionRepository) CreateOnce(ctx context.Context, tx *models.Transaction) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_reference"}},
			DoNothing: true,
		}).
		Create(tx)
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64
	offset, limit = paginate(offset, limit)

	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return txs, total, nil
}
