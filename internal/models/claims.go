package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// Listing permissions
	PermissionListingRead  = "listing:read"
	PermissionListingWrite = "listing:write"

	// Purchases
	PermissionPaymentWrite = "payment:write"

	// Account
	PermissionChangePassword = "user:change-password"
	PermissionAdWrite        = "ad:write"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
	TokenType    string   `json:"token_type"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionListingRead,
			PermissionListingWrite,
			PermissionPaymentWrite,
			PermissionChangePassword,
			PermissionAdWrite,
		}
	case RoleUser:
		return []string{
			PermissionListingRead,
			PermissionListingWrite,
			PermissionPaymentWrite,
			PermissionChangePassword,
			PermissionAdWrite,
		}
	default:
		return []string{}
	}
}
