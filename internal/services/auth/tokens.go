package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"pronat/internal/config"
	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer      = "pronat-api"
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Session is what a successful authentication hands back to the client.
type Session struct {
	AccessToken   string       `json:"access_token"`
	RefreshToken  string       `json:"refresh_token"`
	ExpiresIn     int64        `json:"expires_in"`
	NeedsPassword bool         `json:"needs_password"`
	User          *models.User `json:"user"`
}

// TokenManager mints and verifies HS256 access and refresh tokens.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not configured")
	}
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.JWTSecret
	}
	accessTTL, refreshTTL := cfg.AccessTokenTTL, cfg.RefreshTokenTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(refresh),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// Issue mints an access and refresh pair for user.
func (m *TokenManager) Issue(user *models.User) (*Session, error) {
	access, err := m.sign(user, TokenTypeAccess, m.accessTTL, m.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(user, TokenTypeRefresh, m.refreshTTL, m.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken:   access,
		RefreshToken:  refresh,
		ExpiresIn:     int64(m.accessTTL.Seconds()),
		NeedsPassword: !user.HasPassword,
		User:          user,
	}, nil
}

func (m *TokenManager) sign(user *models.User, typ string, ttl time.Duration, secret []byte) (string, error) {
	now := m.now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		TokenType:    typ,
	}
	if typ == TokenTypeAccess {
		claims.Permissions = models.GetDefaultPermissions(user.Role)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (m *TokenManager) ParseAccess(token string) (*models.UserClaims, error) {
	return m.parse(token, TokenTypeAccess, m.accessSecret)
}

func (m *TokenManager) ParseRefresh(token string) (*models.UserClaims, error) {
	return m.parse(token, TokenTypeRefresh, m.refreshSecret)
}

func (m *TokenManager) parse(tokenStr, typ string, secret []byte) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, appErrors.ErrInvalidToken.Wrap(err)
	}
	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.TokenType != typ {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}
