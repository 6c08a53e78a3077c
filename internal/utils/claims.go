package utils

import (
	appErrors "pronat/internal/errors"
	"pronat/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by the auth middleware.
const (
	LocalClaims = "claims"
	LocalUser   = "user"
	LocalUserID = "userID"
)

// GetUserClaims extracts the user claims from the Fiber context.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(LocalClaims).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

// CurrentUser returns the account loaded by the auth middleware.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(LocalUser).(*models.User)
	if !ok || user == nil {
		return nil, appErrors.ErrInvalidToken
	}
	return user, nil
}

// UserID returns the authenticated user's id, or 0 outside authenticated routes.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}
