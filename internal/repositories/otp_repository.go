package repositories

import (
	"context"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/gorm"
)

type OTPRepository interface {
	Create(ctx context.Context, code *models.OTPCode) error

	// FindValid returns the most recent unused, unexpired code for email.
	FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTPCode, error)

	// MarkUsed flips used to true if it was still false. Only one caller can win.
	MarkUsed(ctx context.Context, id uint) (bool, error)

	// InvalidateOutstanding marks every unused code for email as used
	InvalidateOutstanding(ctx context.Context, email string) error
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, code *models.OTPCode) error {
	return dbError(r.db.WithContext(ctx).Create(code).Error)
}

func (r *otpRepository) FindValid(ctx context.Context, email, code string, now time.Time) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND used = ? AND expires_at > ?", email, code, false, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, notFound(err, appErrors.ErrInvalidOrExpiredCode)
	}
	return &otp, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *otpRepository) InvalidateOutstanding(ctx context.Context, email string) error {
	return dbError(r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("email = ? AND used = ?", email, false).
		Update("used", true).Error)
}
