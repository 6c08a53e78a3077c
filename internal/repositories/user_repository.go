package repositories

import (
	"context"
	"time"

	"pronat/internal/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create inserts a new user; a taken email or phone yields ErrDuplicateKey
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id uint) (*models.User, error)

	// GetByEmail retrieves a user by their normalised email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByPhone retrieves a user by their phone number
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// List retrieves users with pagination
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)

	// UpdateStatus updates the user's status
	UpdateStatus(ctx context.Context, userID uint, status string) error

	// UpdateProfile sets the display name and phone
	UpdateProfile(ctx context.Context, userID uint, fullName string, phone *string) error

	// SetPassword stores a new hash, marks has_password and revokes issued tokens
	SetPassword(ctx context.Context, userID uint, hashedPassword string) error

	// IncrementTokenVersion increments the user's token version
	IncrementTokenVersion(ctx context.Context, userID uint) error

	// TouchLogin records the last successful login
	TouchLogin(ctx context.Context, userID uint, at time.Time) error

	// DecrementCredit removes one credit only if the balance is positive.
	// It reports false when no row was updated.
	DecrementCredit(ctx context.Context, userID uint) (bool, error)

	// AddCredits increments the balance by n
	AddCredits(ctx context.Context, userID uint, n int) error
}
