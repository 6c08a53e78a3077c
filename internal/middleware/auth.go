// Package middleware provides the authentication, authorization and request
// deadline middleware used by the HTTP routes.
package middleware

import (
	"strings"

	appErrors "pronat/internal/errors"
	"pronat/internal/models"
	"pronat/internal/services/auth"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer token and loads the account behind it.
type AuthMiddleware struct {
	authService auth.Service
	log         *zap.Logger
}

func NewAuthMiddleware(authService auth.Service, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         log,
	}
}

// Handler checks for:
// - an Authorization header with a Bearer token
// - a valid signature and expiry
// - a token version matching the account's current version
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return appErrors.ErrInvalidToken.WithMessage("missing or malformed authorization header")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	claims, user, err := m.authService.Authenticate(c.UserContext(), tokenString)
	if err != nil {
		m.log.Debug("authentication failed", zap.String("path", c.Path()), zap.Error(err))
		return err
	}

	c.Locals(utils.LocalClaims, claims)
	c.Locals(utils.LocalUser, user)
	c.Locals(utils.LocalUserID, user.ID)
	return c.Next()
}

// AdminOnly lets through accounts whose current role is admin. The role is read
// from the loaded account so a demoted admin loses access immediately.
func AdminOnly(c *fiber.Ctx) error {
	user, err := utils.CurrentUser(c)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return err
		}
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return appErrors.ErrForbidden
	}
}
