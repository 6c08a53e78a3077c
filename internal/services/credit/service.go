// Package credit keeps each account's publishing credit balance. Every change to
// the balance other than a publish debit is paired with a transaction record.
package credit

import (
	"context"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// Debit removes one credit through store, failing with ErrInsufficientCredits
	// when the balance is zero. The check and the decrement are one statement.
	Debit(ctx context.Context, store repositories.Store, userID uint) error

	// Credit adds n credits and appends record in the same transaction.
	Credit(ctx context.Context, store repositories.Store, userID uint, n int, record *models.Transaction) error

	// Grant is the free admin path.
	Grant(ctx context.Context, adminID, userID uint, n int) (*models.Transaction, error)

	Balance(ctx context.Context, userID uint) (int, error)
}

type service struct {
	store     repositories.Store
	publisher events.Publisher
	log       *zap.Logger
}

func NewService(store repositories.Store, publisher events.Publisher, log *zap.Logger) Service {
	return &service{store: store, publisher: publisher, log: log}
}

func (s *service) Debit(ctx context.Context, store repositories.Store, userID uint) error {
	ok, err := store.Users().DecrementCredit(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return appErrors.ErrInsufficientCredits
	}
	return nil
}

func (s *service) Credit(ctx context.Context, store repositories.Store, userID uint, n int, record *models.Transaction) error {
	if n < 0 {
		return appErrors.Validation("credits must not be negative")
	}
	return store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Users().AddCredits(ctx, userID, n); err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		record.Kind = models.TransactionKindCredit
		record.UserID = userID
		record.Credits = n
		return tx.Transactions().Create(ctx, record)
	})
}

func (s *service) Grant(ctx context.Context, adminID, userID uint, n int) (*models.Transaction, error) {
	if n <= 0 {
		return nil, appErrors.Validation("credits must be positive")
	}
	record := &models.Transaction{
		AmountPaid: decimal.Zero,
		Currency:   "EUR",
		Status:     models.TransactionStatusPaid,
		GrantedBy:  &adminID,
		Metadata:   models.JSON{"source": "admin_grant"},
	}
	if err := s.Credit(ctx, s.store, userID, n, record); err != nil {
		return nil, err
	}
	s.log.Info("credits granted",
		zap.Uint("admin_id", adminID),
		zap.Uint("user_id", userID),
		zap.Int("credits", n),
	)
	events.Emit(ctx, s.publisher, s.log, events.CreditsAdded, events.CreditsEvent{UserID: userID, Credits: n})
	return record, nil
}

func (s *service) Balance(ctx context.Context, userID uint) (int, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.CreditsRemaining, nil
}
