package auth

import (
	"context"
	"testing"
	"time"

	"pronat/internal/config"
	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/repositories/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*memstore.Store, *TokenManager, Service) {
	t.Helper()
	store := memstore.New()
	tokens, err := NewTokenManager(config.AuthConfig{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return store, tokens, NewService(store, tokens, zap.NewNop())
}

// onboard creates an account the way OTP verification does and sets its password.
func onboard(t *testing.T, store *memstore.Store, svc Service, email, password string) *models.User {
	t.Helper()
	hash, err := PlaceholderPasswordHash()
	require.NoError(t, err)
	u := &models.User{Email: email, Password: hash, EmailConfirmed: true}
	require.NoError(t, store.Users().Create(context.Background(), u))
	if password != "" {
		_, err := svc.SetPassword(context.Background(), u.ID, password, password)
		require.NoError(t, err)
	}
	return u
}

func TestTokenManager(t *testing.T) {
	_, tokens, _ := setup(t)
	user := &models.User{Model: gorm.Model{ID: 3}, Email: "a@example.com", Role: models.RoleUser, TokenVersion: 2}

	session, err := tokens.Issue(user)
	require.NoError(t, err)
	assert.True(t, session.NeedsPassword)
	assert.Equal(t, int64(60), session.ExpiresIn)

	claims, err := tokens.ParseAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.True(t, claims.HasPermission(models.PermissionListingWrite))

	_, err = tokens.ParseAccess(session.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "refresh token is not an access token")
	_, err = tokens.ParseRefresh(session.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
	_, err = tokens.ParseAccess("garbage")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.ParseAccess(session.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "expired")
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager(config.AuthConfig{})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	onboard(t, store, svc, "owner@example.com", "correct-horse")
	onboard(t, store, svc, "fresh@example.com", "")

	session, err := svc.Login(ctx, " Owner@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.False(t, session.NeedsPassword)
	assert.NotNil(t, session.User.LastLoginAt)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"wrong password", "owner@example.com", "wrong-horse", appErrors.ErrInvalidCredentials},
		{"unknown email", "ghost@example.com", "whatever1", appErrors.ErrInvalidCredentials},
		{"password never set", "fresh@example.com", "anything1", appErrors.ErrPasswordNotSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin_BlockedUserCanStillSignIn(t *testing.T) {
	store, _, svc := setup(t)
	u := onboard(t, store, svc, "owner@example.com", "correct-horse")
	require.NoError(t, store.Users().UpdateStatus(context.Background(), u.ID, models.UserStatusBlocked))

	session, err := svc.Login(context.Background(), "owner@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusBlocked, session.User.Status)
}

func TestSetPassword(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	u := onboard(t, store, svc, "fresh@example.com", "")

	_, err := svc.SetPassword(ctx, u.ID, "short", "short")
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
	_, err = svc.SetPassword(ctx, u.ID, "long-enough-1", "long-enough-2")
	de, ok := appErrors.As(err)
	require.True(t, ok)
	assert.Contains(t, de.Fields, "confirm_password")

	session, err := svc.SetPassword(ctx, u.ID, "long-enough-1", "long-enough-1")
	require.NoError(t, err)
	assert.False(t, session.NeedsPassword)
	assert.True(t, session.User.HasPassword)
}

func TestSessionRevocation(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	u := onboard(t, store, svc, "owner@example.com", "correct-horse")

	session, err := svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, _, err = svc.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	u := onboard(t, store, svc, "owner@example.com", "correct-horse")
	old, err := svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, u.ID, "not-it", "battery-staple")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.ChangePassword(ctx, u.ID, "correct-horse", "battery-staple")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, old.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken, "changing the password revokes older sessions")
	_, err = svc.Login(ctx, "owner@example.com", "battery-staple")
	assert.NoError(t, err)
}

func TestCompleteProfile(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	a := onboard(t, store, svc, "a@example.com", "")
	b := onboard(t, store, svc, "b@example.com", "")

	got, err := svc.CompleteProfile(ctx, a.ID, "Arta Hoxha", "+355 69 123 4567")
	require.NoError(t, err)
	assert.Equal(t, "Arta Hoxha", got.FullName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+355691234567", *got.Phone)

	_, err = svc.CompleteProfile(ctx, b.ID, "Besa", "+355691234567")
	assert.ErrorIs(t, err, appErrors.ErrPhoneTaken)

	_, err = svc.CompleteProfile(ctx, b.ID, "", "")
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
}

func TestSetStatus(t *testing.T) {
	store, _, svc := setup(t)
	ctx := context.Background()
	u := onboard(t, store, svc, "a@example.com", "")

	got, err := svc.SetStatus(ctx, 1, u.ID, models.UserStatusBlocked)
	require.NoError(t, err)
	assert.True(t, got.IsBlocked())

	_, err = svc.SetStatus(ctx, 1, u.ID, "banished")
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
	_, err = svc.SetStatus(ctx, 1, 404, models.UserStatusActive)
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
}
