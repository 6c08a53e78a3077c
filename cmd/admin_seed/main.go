// Command admin_seed creates the first admin account and loads the blocked
// keywords and package catalog from a YAML seed file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pronat/internal/config"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/validation"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Keywords       []string       `yaml:"keywords"`
	CreditPackages []creditSeed   `yaml:"credit_packages"`
	ExtraPackages  []durationSeed `yaml:"extra_packages"`
	AdPackages     []durationSeed `yaml:"ad_packages"`
}

type creditSeed struct {
	ID       uint   `yaml:"id"`
	Name     string `yaml:"name"`
	Credits  int    `yaml:"credits"`
	Price    string `yaml:"price"`
	Currency string `yaml:"currency"`
}

// durationSeed describes extra packages (Type) and ad packages (Placement).
type durationSeed struct {
	ID           uint   `yaml:"id"`
	Type         string `yaml:"type"`
	Placement    string `yaml:"placement"`
	DurationDays int    `yaml:"duration_days"`
	Price        string `yaml:"price"`
	Currency     string `yaml:"currency"`
}

func main() {
	config.LoadEnv()
	cfg := config.Load()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialise database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	store := repositories.NewStore(db)

	if err := seedAdmin(ctx, store); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	if path := config.GetEnv("SEED_FILE", ""); path != "" {
		if err := seedCatalog(ctx, store, path); err != nil {
			log.Fatalf("failed to seed %s: %v", path, err)
		}
	}
}

func seedAdmin(ctx context.Context, store repositories.Store) error {
	email := validation.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	phone := validation.NormalizePhone(os.Getenv("ADMIN_PHONE"))
	if email == "" || password == "" || phone == "" {
		return errors.New("ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_PHONE must be set")
	}

	if _, err := store.Users().GetByEmail(ctx, email); err == nil {
		log.Println("admin user already exists")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Email:          email,
		Phone:          &phone,
		FullName:       "Administrator",
		Password:       string(hashed),
		HasPassword:    true,
		EmailConfirmed: true,
		Role:           models.RoleAdmin,
		Status:         models.UserStatusActive,
		TokenVersion:   1,
	}
	if err := store.Users().Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("admin account %s created", email)
	return nil
}

func seedCatalog(ctx context.Context, store repositories.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	// Keywords go in one by one so an existing entry does not abort the batch.
	for _, kw := range seed.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		err := store.Keywords().Create(ctx, &models.BlockedKeyword{Keyword: kw, IsActive: true})
		if err != nil && !errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("keyword %q: %w", kw, err)
		}
	}

	return store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		for _, p := range seed.CreditPackages {
			price, err := parsePrice(p.Price)
			if err != nil {
				return fmt.Errorf("credit package %q: %w", p.Name, err)
			}
			pkg := &models.CreditPackage{
				ID: p.ID, Name: p.Name, Credits: p.Credits,
				Price: price, Currency: currency(p.Currency), IsActive: true,
			}
			if err := tx.Catalog().SaveCreditPackage(ctx, pkg); err != nil {
				return err
			}
		}

		for _, p := range seed.ExtraPackages {
			if !models.ValidExtraType(p.Type) {
				return fmt.Errorf("extra package type %q is not known", p.Type)
			}
			price, err := parsePrice(p.Price)
			if err != nil {
				return fmt.Errorf("extra package %q: %w", p.Type, err)
			}
			pkg := &models.ExtraPackage{
				ID: p.ID, Type: p.Type, DurationDays: p.DurationDays,
				Price: price, Currency: currency(p.Currency), IsActive: true,
			}
			if err := tx.Catalog().SaveExtraPackage(ctx, pkg); err != nil {
				return err
			}
		}

		for _, p := range seed.AdPackages {
			price, err := parsePrice(p.Price)
			if err != nil {
				return fmt.Errorf("ad package %q: %w", p.Placement, err)
			}
			pkg := &models.AdPackage{
				ID: p.ID, Placement: p.Placement, DurationDays: p.DurationDays,
				Price: price, Currency: currency(p.Currency), IsActive: true,
			}
			if err := tx.Catalog().SaveAdPackage(ctx, pkg); err != nil {
				return err
			}
		}

		log.Printf("seeded %d keywords, %d credit, %d extra and %d ad packages",
			len(seed.Keywords), len(seed.CreditPackages), len(seed.ExtraPackages), len(seed.AdPackages))
		return nil
	})
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return d, nil
}

func currency(c string) string {
	if c == "" {
		return "EUR"
	}
	return c
}
