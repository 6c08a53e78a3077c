package repositories

import (
	"context"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return dbError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, appErrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, appErrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, notFound(err, appErrors.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	offset, limit = paginate(offset, limit)

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}
	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return users, total, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID uint, status string) error {
	return r.updates(ctx, userID, map[string]interface{}{"status": status})
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID uint, fullName string, phone *string) error {
	return r.updates(ctx, userID, map[string]interface{}{"full_name": fullName, "phone": phone})
}

func (r *userRepository) SetPassword(ctx context.Context, userID uint, hashedPassword string) error {
	return r.updates(ctx, userID, map[string]interface{}{
		"password":      hashedPassword,
		"has_password":  true,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *userRepository) IncrementTokenVersion(ctx context.Context, userID uint) error {
	return r.updates(ctx, userID, map[string]interface{}{"token_version": gorm.Expr("token_version + 1")})
}

func (r *userRepository) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.updates(ctx, userID, map[string]interface{}{"last_login_at": at})
}

func (r *userRepository) DecrementCredit(ctx context.Context, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND credits_remaining > 0", userID).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining - 1"))
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *userRepository) AddCredits(ctx context.Context, userID uint, n int) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("credits_remaining", gorm.Expr("credits_remaining + ?", n))
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updates(ctx context.Context, userID uint, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(values)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}
