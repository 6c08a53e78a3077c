// Package settings exposes the platform-wide testing-mode flag.
package settings

import (
	"context"

	"pronat/internal/repositories"

	"go.uber.org/zap"
)

// Service reads the flag from the settings row on every call so a toggle
// applies to the very next publish or checkout.
type Service interface {
	TestingMode(ctx context.Context) (bool, error)
	SetTestingMode(ctx context.Context, enabled bool) error
}

type service struct {
	store repositories.Store
	log   *zap.Logger
}

func NewService(store repositories.Store, log *zap.Logger) Service {
	return &service{store: store, log: log}
}

func (s *service) TestingMode(ctx context.Context) (bool, error) {
	row, err := s.store.Settings().Get(ctx)
	if err != nil {
		return false, err
	}
	return row.TestingMode, nil
}

func (s *service) SetTestingMode(ctx context.Context, enabled bool) error {
	if err := s.store.Settings().SetTestingMode(ctx, enabled); err != nil {
		return err
	}
	s.log.Info("testing mode changed", zap.Bool("enabled", enabled))
	return nil
}
