// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"pronat/internal/config"
	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDuplicateKey is returned when an insert violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// InitDB opens the PostgreSQL connection, configures the pool and migrates the schema.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)

	// Configure GORM logger to ignore "record not found" errors
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn, // Only log warnings and errors
			IgnoreRecordNotFoundError: true,
			Colorful:                  !config.IsProduction(),
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema and makes sure the settings row exists.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.OTPCode{},
		&models.BlockedKeyword{},
		&models.ComplianceFlag{},
		&models.CreditPackage{},
		&models.ExtraPackage{},
		&models.AdPackage{},
		&models.Ad{},
		&models.Transaction{},
		&models.PlatformSettings{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return db.FirstOrCreate(&models.PlatformSettings{ID: models.PlatformSettingsID}).Error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                   { return &userRepository{db: s.db} }
func (s *gormStore) Properties() PropertyRepository         { return &propertyRepository{db: s.db} }
func (s *gormStore) OTPCodes() OTPRepository                { return &otpRepository{db: s.db} }
func (s *gormStore) Keywords() KeywordRepository            { return &keywordRepository{db: s.db} }
func (s *gormStore) ComplianceFlags() ComplianceFlagRepository {
	return &complianceFlagRepository{db: s.db}
}
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepository{db: s.db} }
func (s *gormStore) Catalog() CatalogRepository          { return &catalogRepository{db: s.db} }
func (s *gormStore) Ads() AdRepository                   { return &adRepository{db: s.db} }
func (s *gormStore) Settings() SettingsRepository        { return &settingsRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	if err == nil {
		return nil
	}
	if _, ok := appErrors.As(err); ok {
		return err
	}
	return dbError(err)
}

// dbError maps driver failures onto the domain taxonomy. Deadline and
// cancellation surface as retryable, never as success.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, ErrDuplicateKey):
		return ErrDuplicateKey
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return appErrors.Unavailable(err)
	}
	if _, ok := appErrors.As(err); ok {
		return err
	}
	return appErrors.ErrDataStore.Wrap(err)
}

// notFound returns sentinel when err is gorm's record-not-found, otherwise dbError(err).
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return dbError(err)
}

func paginate(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
