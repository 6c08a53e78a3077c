package settings

import (
	"context"
	"errors"
	"testing"

	appErrors "pronat/internal/errors"
	"pronat/internal/repositories/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTestingMode_FollowsEveryToggle(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	on, err := svc.TestingMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	for _, want := range []bool{true, false, true} {
		require.NoError(t, svc.SetTestingMode(ctx, want))
		got, err := svc.TestingMode(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestTestingMode_SeesChangesMadeElsewhere(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.TestingMode(ctx)
	require.NoError(t, err)

	// Another instance flips the row directly.
	require.NoError(t, store.Settings().SetTestingMode(ctx, true))
	on, err := svc.TestingMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestTestingMode_StoreFailure(t *testing.T) {
	store := memstore.New()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	store.Fail("settings.Get", appErrors.Unavailable(errors.New("connection reset")))
	_, err := svc.TestingMode(ctx)
	assert.Equal(t, appErrors.KindUnavailable, appErrors.KindOf(err))

	store.Fail("settings.SetTestingMode", appErrors.Unavailable(errors.New("connection reset")))
	assert.Error(t, svc.SetTestingMode(ctx, true))
	on, err := svc.TestingMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}
