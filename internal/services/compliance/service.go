package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories"
	"pronat/internal/repositories/cache"
	"pronat/internal/validation"

	"go.uber.org/zap"
)

const (
	keywordsCacheKey = "keywords:active"
	keywordsCacheTTL = 10 * time.Minute
)

// Violation is returned when screened content matched a blocked keyword.
// The blocking bundle has already been written when it is returned.
type Violation struct {
	Keyword    string
	UserID     uint
	PropertyID *uint
}

func (v *Violation) Error() string {
	return fmt.Sprintf("content matched blocked keyword %q", v.Keyword)
}

func (v *Violation) Unwrap() error {
	return appErrors.ErrComplianceViolation
}

// Subject is the content to screen and the records to block on a match.
type Subject struct {
	UserID     uint
	PropertyID *uint
	Texts      []string
}

type Service interface {
	// Screen checks subject against the active keywords. On a match it blocks the
	// user and the listing and appends a flag row through store, which should be
	// the caller's transaction, then returns a *Violation.
	Screen(ctx context.Context, store repositories.Store, subject Subject) error

	ActiveKeywords(ctx context.Context) ([]string, error)
	ListKeywords(ctx context.Context) ([]models.BlockedKeyword, error)
	AddKeyword(ctx context.Context, keyword string) (*models.BlockedKeyword, error)
	RemoveKeyword(ctx context.Context, id uint) error
	ListFlags(ctx context.Context, offset, limit int) ([]models.ComplianceFlag, int64, error)
}

type service struct {
	store repositories.Store
	cache cache.Cache
	log   *zap.Logger
}

func NewService(store repositories.Store, c cache.Cache, log *zap.Logger) Service {
	return &service{store: store, cache: c, log: log}
}

func (s *service) Screen(ctx context.Context, store repositories.Store, subject Subject) error {
	keywords, err := s.ActiveKeywords(ctx)
	if err != nil {
		return err
	}
	kw, hit := Match(strings.Join(subject.Texts, "\n"), keywords)
	if !hit {
		return nil
	}

	if err := store.Users().UpdateStatus(ctx, subject.UserID, models.UserStatusBlocked); err != nil {
		return err
	}
	if subject.PropertyID != nil {
		if err := store.Properties().UpdateStatus(ctx, *subject.PropertyID, models.PropertyStatusBlocked); err != nil {
			return err
		}
	}
	flag := &models.ComplianceFlag{
		UserID:         subject.UserID,
		PropertyID:     subject.PropertyID,
		MatchedKeyword: kw,
		Reason:         fmt.Sprintf("listing content contains the blocked term %q (agency or broker wording)", kw),
	}
	if err := store.ComplianceFlags().Create(ctx, flag); err != nil {
		return err
	}

	s.log.Warn("compliance violation",
		zap.Uint("user_id", subject.UserID),
		zap.Uintp("property_id", subject.PropertyID),
		zap.String("keyword", kw),
	)
	return &Violation{Keyword: kw, UserID: subject.UserID, PropertyID: subject.PropertyID}
}

func (s *service) ActiveKeywords(ctx context.Context) ([]string, error) {
	var cached []string
	found, err := s.cache.Get(ctx, keywordsCacheKey, &cached)
	if err != nil {
		s.log.Debug("keyword cache read failed", zap.Error(err))
	}
	if found {
		return cached, nil
	}

	rows, err := s.store.Keywords().ListActive(ctx)
	if err != nil {
		return nil, err
	}
	keywords := make([]string, 0, len(rows))
	for _, r := range rows {
		keywords = append(keywords, r.Keyword)
	}
	if err := s.cache.SetWithTTL(ctx, keywordsCacheKey, keywords, keywordsCacheTTL); err != nil {
		s.log.Debug("keyword cache write failed", zap.Error(err))
	}
	return keywords, nil
}

func (s *service) ListKeywords(ctx context.Context) ([]models.BlockedKeyword, error) {
	return s.store.Keywords().List(ctx)
}

func (s *service) AddKeyword(ctx context.Context, keyword string) (*models.BlockedKeyword, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	v := validation.New()
	v.Required("keyword", keyword)
	v.MaxLength("keyword", keyword, validation.MaxKeywordLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	kw := &models.BlockedKeyword{Keyword: keyword, IsActive: true}
	if err := s.store.Keywords().Create(ctx, kw); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, appErrors.Validation("keyword already exists")
		}
		return nil, err
	}
	s.invalidate(ctx)
	return kw, nil
}

func (s *service) RemoveKeyword(ctx context.Context, id uint) error {
	if err := s.store.Keywords().Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) ListFlags(ctx context.Context, offset, limit int) ([]models.ComplianceFlag, int64, error) {
	return s.store.ComplianceFlags().List(ctx, offset, limit)
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, keywordsCacheKey); err != nil {
		s.log.Warn("keyword cache invalidation failed", zap.Error(err))
	}
}
