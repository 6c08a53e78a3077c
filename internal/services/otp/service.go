// Package otp issues and redeems emailed one-time codes for registration and password reset.
package otp

import (
	"context"
	"errors"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/services/auth"
	"pronat/internal/services/notification"
	"pronat/internal/validation"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	codeAlphabet = "0123456789"
	codeLength   = 6
	defaultTTL   = 10 * time.Minute
)

// SessionIssuer mints a session for an authenticated account.
type SessionIssuer interface {
	Issue(user *models.User) (*auth.Session, error)
}

type IssueRequest struct {
	Email   string
	Purpose string
	Phone   string
}

type Service interface {
	// Issue generates, stores and emails a code. Exactly one code row is written per successful call.
	Issue(ctx context.Context, req IssueRequest) error

	// Verify redeems a code, provisions the account if needed and returns a session.
	Verify(ctx context.Context, email, code string) (*auth.Session, error)
}

type Options struct {
	TTL time.Duration

	// InvalidatePrevious marks earlier unused codes for the same email as used on issue.
	InvalidatePrevious bool
}

type service struct {
	store     repositories.Store
	mailer    notification.Mailer
	sessions  SessionIssuer
	publisher events.Publisher
	log       *zap.Logger
	opts      Options
	now       func() time.Time
}

func NewService(store repositories.Store, mailer notification.Mailer, sessions SessionIssuer,
	publisher events.Publisher, log *zap.Logger, opts Options) Service {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return &service{
		store:     store,
		mailer:    mailer,
		sessions:  sessions,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *service) Issue(ctx context.Context, req IssueRequest) error {
	email := validation.NormalizeEmail(req.Email)
	phone := validation.NormalizePhone(req.Phone)

	v := validation.New()
	v.Email("email", email)
	v.In("purpose", req.Purpose, models.OTPPurposeRegister, models.OTPPurposeReset)
	if req.Purpose == models.OTPPurposeReset {
		v.Required("phone", phone)
		v.Phone("phone", phone)
	}
	if err := v.Err(); err != nil {
		return err
	}

	// Account state is checked before any code exists.
	if err := s.checkAccount(ctx, email, req.Purpose, phone); err != nil {
		return err
	}

	code, err := gonanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return appErrors.Unavailable(err)
	}
	now := s.now()
	row := &models.OTPCode{
		Email:     email,
		Code:      code,
		Purpose:   req.Purpose,
		ExpiresAt: now.Add(s.opts.TTL),
		CreatedAt: now,
	}

	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if s.opts.InvalidatePrevious {
			if err := tx.OTPCodes().InvalidateOutstanding(ctx, email); err != nil {
				return err
			}
		}
		return tx.OTPCodes().Create(ctx, row)
	})
	if err != nil {
		return err
	}

	subject, body := notification.OTPEmail(req.Purpose, code, s.opts.TTL)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.log.Warn("otp delivery failed", zap.String("purpose", req.Purpose), zap.Error(err))
		if errors.Is(err, appErrors.ErrDeliveryFailed) {
			return err
		}
		return appErrors.ErrDeliveryFailed.Wrap(err)
	}

	s.log.Info("otp issued", zap.String("purpose", req.Purpose), zap.Uint("otp_id", row.ID))
	return nil
}

func (s *service) checkAccount(ctx context.Context, email, purpose, phone string) error {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, appErrors.ErrUserNotFound) {
		return err
	}

	switch purpose {
	case models.OTPPurposeRegister:
		if user != nil && user.HasPassword {
			return appErrors.ErrEmailExists
		}
	case models.OTPPurposeReset:
		if user == nil {
			return appErrors.ErrUserNotFound
		}
		if user.Phone == nil || validation.NormalizePhone(*user.Phone) != phone {
			return appErrors.ErrPhoneMismatch
		}
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) (*auth.Session, error) {
	email = validation.NormalizeEmail(email)
	v := validation.New()
	v.Email("email", email)
	v.Code("code", code)
	if err := v.Err(); err != nil {
		return nil, err
	}

	var (
		user    *models.User
		created bool
	)
	now := s.now()
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		row, err := tx.OTPCodes().FindValid(ctx, email, code, now)
		if err != nil {
			return err
		}
		won, err := tx.OTPCodes().MarkUsed(ctx, row.ID)
		if err != nil {
			return err
		}
		if !won {
			return appErrors.ErrInvalidOrExpiredCode
		}
		user, created, err = s.resolveAccount(ctx, tx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.log.Info("account provisioned", zap.Uint("user_id", user.ID))
		events.Emit(ctx, s.publisher, s.log, events.UserRegistered, events.UserEvent{UserID: user.ID, Email: user.Email})
	}
	return s.sessions.Issue(user)
}

// resolveAccount returns the account for email, creating it on first verification.
func (s *service) resolveAccount(ctx context.Context, tx repositories.Store, email string) (*models.User, bool, error) {
	user, err := tx.Users().GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, appErrors.ErrUserNotFound) {
		return nil, false, err
	}

	hash, err := auth.PlaceholderPasswordHash()
	if err != nil {
		return nil, false, err
	}
	user = &models.User{
		Email:          email,
		Password:       hash,
		HasPassword:    false,
		EmailConfirmed: true,
		Role:           models.RoleUser,
		Status:         models.UserStatusActive,
		TokenVersion:   1,
	}
	err = tx.ExecuteInTransaction(ctx, func(inner repositories.Store) error {
		return inner.Users().Create(ctx, user)
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		// A concurrent verification created the account first.
		existing, err := tx.Users().GetByEmail(ctx, email)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
