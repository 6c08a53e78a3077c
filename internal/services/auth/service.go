// Package auth issues sessions and manages passwords for accounts created through OTP.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID uint) error

	// SetPassword finishes onboarding after OTP verification.
	SetPassword(ctx context.Context, userID uint, password, confirm string) (*Session, error)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) (*Session, error)
	CompleteProfile(ctx context.Context, userID uint, fullName, phone string) (*models.User, error)

	// Authenticate resolves an access token to its claims and live account.
	Authenticate(ctx context.Context, accessToken string) (*models.UserClaims, *models.User, error)
	Me(ctx context.Context, userID uint) (*models.User, error)

	// SetStatus is the admin moderation path for accounts.
	SetStatus(ctx context.Context, adminID, userID uint, status string) (*models.User, error)
}

type service struct {
	store  repositories.Store
	tokens *TokenManager
	log    *zap.Logger
}

func NewService(store repositories.Store, tokens *TokenManager, log *zap.Logger) Service {
	return &service{store: store, tokens: tokens, log: log}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = validation.NormalizeEmail(email)
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			s.log.Info("login failed: unknown email")
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.HasPassword {
		return nil, appErrors.ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Info("login failed: wrong password", zap.Uint("user_id", user.ID))
		return nil, appErrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.store.Users().TouchLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("failed to record login time", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now
	return s.tokens.Issue(user)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.liveUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(user)
}

func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.store.Users().IncrementTokenVersion(ctx, userID)
}

func (s *service) SetPassword(ctx context.Context, userID uint, password, confirm string) (*Session, error) {
	v := validation.New()
	v.Password("password", password)
	v.Check(password == confirm, "confirm_password", "must match password")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.storePassword(ctx, userID, password)
}

func (s *service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) (*Session, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword {
		return nil, appErrors.ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	v := validation.New()
	v.Password("new_password", newPassword)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return s.storePassword(ctx, userID, newPassword)
}

func (s *service) storePassword(ctx context.Context, userID uint, password string) (*Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().SetPassword(ctx, userID, string(hash)); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info("password updated", zap.Uint("user_id", userID))
	return s.tokens.Issue(user)
}

func (s *service) CompleteProfile(ctx context.Context, userID uint, fullName, phone string) (*models.User, error) {
	phone = validation.NormalizePhone(phone)
	v := validation.New()
	v.Required("full_name", fullName)
	v.MaxLength("full_name", fullName, validation.MaxNameLength)
	if phone != "" {
		v.Phone("phone", phone)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	var phonePtr *string
	if phone != "" {
		phonePtr = &phone
		existing, err := s.store.Users().GetByPhone(ctx, phone)
		switch {
		case err == nil && existing.ID != userID:
			return nil, appErrors.ErrPhoneTaken
		case err != nil && !errors.Is(err, appErrors.ErrUserNotFound):
			return nil, err
		}
	}

	if err := s.store.Users().UpdateProfile(ctx, userID, fullName, phonePtr); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, appErrors.ErrPhoneTaken
		}
		return nil, err
	}
	return s.store.Users().GetByID(ctx, userID)
}

func (s *service) Authenticate(ctx context.Context, accessToken string) (*models.UserClaims, *models.User, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.liveUser(ctx, claims)
	if err != nil {
		return nil, nil, err
	}
	return claims, user, nil
}

func (s *service) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

func (s *service) SetStatus(ctx context.Context, adminID, userID uint, status string) (*models.User, error) {
	if !models.ValidUserStatus(status) {
		return nil, appErrors.ValidationFields(map[string]string{"status": "must be active, blocked or suspended"})
	}
	if err := s.store.Users().UpdateStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	s.log.Info("account status changed",
		zap.Uint("admin_id", adminID),
		zap.Uint("user_id", userID),
		zap.String("status", status),
	)
	return s.store.Users().GetByID(ctx, userID)
}

// liveUser loads the token's account and rejects tokens issued before the last revocation.
func (s *service) liveUser(ctx context.Context, claims *models.UserClaims) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, appErrors.ErrInvalidToken
	}
	return user, nil
}

// PlaceholderPasswordHash hashes 32 random bytes that are never returned or stored in clear.
// Accounts provisioned by OTP carry it until the user sets a real password.
func PlaceholderPasswordHash() (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("generate placeholder credential: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash placeholder credential: %w", err)
	}
	return string(hash), nil
}
