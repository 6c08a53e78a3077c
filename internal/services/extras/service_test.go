package extras

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "pronat/internal/errors"
	"pronat/internal/events"
	"pronat/internal/models"
	"pronat/internal/repositories/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T, status string) (*memstore.Store, *events.Recorder, *service, *models.Property) {
	t.Helper()
	store := memstore.New()
	owner := &models.User{Email: "owner@example.com"}
	require.NoError(t, store.Users().Create(context.Background(), owner))
	prop := &models.Property{UserID: owner.ID, Title: "Flat", ListingType: models.ListingTypeSale, Status: status}
	require.NoError(t, store.Properties().Create(context.Background(), prop))

	rec := &events.Recorder{}
	svc := NewService(store, rec, zap.NewNop()).(*service)
	return store, rec, svc, prop
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		extraType string
		days      int
		wantErr   bool
	}{
		{"featured", models.ExtraFeatured, 7, false},
		{"urgent", models.ExtraUrgent, 3, false},
		{"boost without duration", models.ExtraBoost, 0, false},
		{"featured without duration", models.ExtraFeatured, 0, true},
		{"negative boost", models.ExtraBoost, -1, true},
		{"unknown type", "spotlight", 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.extraType, tt.days)
			if tt.wantErr {
				assert.ErrorIs(t, err, appErrors.ErrInvalidExtra)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestApply_FeaturedReplacesExpiry(t *testing.T) {
	store, _, svc, prop := setup(t, models.PropertyStatusActive)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := svc.Apply(ctx, store, Activation{PropertyID: prop.ID, Type: models.ExtraFeatured, DurationDays: 30}, start)
	require.NoError(t, err)

	later := start.AddDate(0, 0, 5)
	got, err := svc.Apply(ctx, store, Activation{PropertyID: prop.ID, Type: models.ExtraFeatured, DurationDays: 7}, later)
	require.NoError(t, err)

	require.NotNil(t, got.FeaturedUntil)
	assert.True(t, got.IsFeatured)
	assert.Equal(t, start.AddDate(0, 0, 12), *got.FeaturedUntil, "the second purchase overwrites rather than extends")
}

func TestApply_UrgentAndBoost(t *testing.T) {
	store, _, svc, prop := setup(t, models.PropertyStatusActive)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := svc.Apply(ctx, store, Activation{PropertyID: prop.ID, Type: models.ExtraUrgent, DurationDays: 3}, now)
	require.NoError(t, err)
	assert.True(t, got.UrgentActive(now))
	assert.False(t, got.FeaturedActive(now))

	got, err = svc.Apply(ctx, store, Activation{PropertyID: prop.ID, Type: models.ExtraBoost}, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got.LastBoostedAt)
	assert.Equal(t, now.Add(time.Hour), *got.LastBoostedAt)
	assert.True(t, got.UrgentActive(now), "boost leaves other extras untouched")
}

func TestApply_RecordRollsBackWithListing(t *testing.T) {
	store, _, svc, prop := setup(t, models.PropertyStatusActive)
	store.Fail("transactions.Create", errors.New("write failed"))

	_, err := svc.Apply(context.Background(), store, Activation{
		PropertyID:   prop.ID,
		Type:         models.ExtraFeatured,
		DurationDays: 7,
		Record:       &models.Transaction{Status: models.TransactionStatusPaid},
	}, time.Now())
	require.Error(t, err)

	stored, err := store.Properties().GetByID(context.Background(), prop.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsFeatured)
	assert.Nil(t, stored.FeaturedUntil)
}

func TestApply_UnknownProperty(t *testing.T) {
	store, _, svc, _ := setup(t, models.PropertyStatusActive)
	_, err := svc.Apply(context.Background(), store, Activation{PropertyID: 999, Type: models.ExtraBoost}, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrPropertyNotFound)
}

func TestAdminGrant(t *testing.T) {
	t.Run("active listing", func(t *testing.T) {
		store, rec, svc, prop := setup(t, models.PropertyStatusActive)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		got, err := svc.AdminGrant(context.Background(), 42, prop.ID, models.ExtraFeatured, 14)
		require.NoError(t, err)
		assert.Equal(t, now.AddDate(0, 0, 14), *got.FeaturedUntil)

		ledger := store.AllTransactions()
		require.Len(t, ledger, 1)
		assert.Equal(t, models.TransactionKindExtra, ledger[0].Kind)
		assert.Equal(t, prop.UserID, ledger[0].UserID)
		assert.Equal(t, uint(42), *ledger[0].GrantedBy)
		assert.True(t, ledger[0].AmountPaid.IsZero())
		assert.Equal(t, []string{events.ExtraActivated}, rec.Keys())
	})

	t.Run("draft listing", func(t *testing.T) {
		store, rec, svc, prop := setup(t, models.PropertyStatusDraft)

		_, err := svc.AdminGrant(context.Background(), 42, prop.ID, models.ExtraUrgent, 3)
		assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
		assert.Empty(t, store.AllTransactions())
		assert.Empty(t, rec.Keys())
	})

	t.Run("invalid extra", func(t *testing.T) {
		_, _, svc, prop := setup(t, models.PropertyStatusActive)
		_, err := svc.AdminGrant(context.Background(), 42, prop.ID, models.ExtraUrgent, 0)
		assert.ErrorIs(t, err, appErrors.ErrInvalidExtra)
	})
}
