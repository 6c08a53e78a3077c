// Package routes defines the API routing configuration.
// It groups routes by audience and applies the matching middleware.
package routes

import (
	"time"

	"pronat/internal/handlers"
	"pronat/internal/middleware"
	"pronat/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Property *handlers.PropertyHandler
	Payment  *handlers.PaymentHandler
	Ad       *handlers.AdHandler
	Admin    *handlers.AdminHandler
}

// Options tunes the per-IP limiter on the credential and OTP endpoints.
type Options struct {
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, authMW *middleware.AuthMiddleware, opts Options) {
	app.Get("/health", h.Health.HealthCheck)

	api := app.Group("/api")

	requireAuth := authMW.Handler
	canList := middleware.HasPermission(models.PermissionListingWrite)

	// Public endpoints
	api.Get("/packages", h.Payment.Packages)
	api.Get("/properties", h.Property.Search)
	api.Get("/properties/mine", requireAuth, h.Property.Mine)
	api.Get("/properties/:id", h.Property.Get)
	api.Post("/properties/:id/view", h.Property.RecordView)
	api.Post("/properties/:id/contact", h.Property.RecordContact)
	api.Get("/ads", h.Ad.ListActive)
	api.Post("/payments/webhook", h.Payment.Webhook)

	authLimiter := rateLimiter(opts)
	authGroup := api.Group("/auth")
	authGroup.Post("/otp/send", authLimiter, h.Auth.SendOTP)
	authGroup.Post("/otp/verify", authLimiter, h.Auth.VerifyOTP)
	authGroup.Post("/login", authLimiter, h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.Refresh)

	// Authenticated endpoints
	authGroup.Post("/password", requireAuth, h.Auth.SetPassword)
	authGroup.Post("/change-password", requireAuth,
		middleware.HasPermission(models.PermissionChangePassword), h.Auth.ChangePassword)
	authGroup.Post("/logout", requireAuth, h.Auth.Logout)

	api.Get("/me", requireAuth, h.User.Me)
	api.Put("/me/profile", requireAuth, h.User.UpdateProfile)
	api.Get("/me/transactions", requireAuth, h.User.Transactions)

	api.Post("/properties", requireAuth, canList, h.Property.Create)
	api.Post("/properties/:id/publish", requireAuth, canList, h.Property.Publish)
	api.Patch("/properties/:id/status", requireAuth, canList, h.Property.SetStatus)
	api.Post("/properties/:id/images", requireAuth, canList, h.Property.AddImages)
	api.Post("/checkout", requireAuth, middleware.HasPermission(models.PermissionPaymentWrite), h.Payment.Checkout)
	api.Post("/ads", requireAuth, middleware.HasPermission(models.PermissionAdWrite), h.Ad.Create)

	// Admin endpoints
	admin := api.Group("/admin", requireAuth, middleware.AdminOnly)
	admin.Post("/users/:id/credits", h.Admin.GrantCredits)
	admin.Patch("/users/:id/status", h.Admin.SetUserStatus)
	admin.Post("/properties/:id/extras", h.Admin.GrantExtra)
	admin.Patch("/properties/:id/status", h.Admin.SetPropertyStatus)
	admin.Get("/keywords", h.Admin.ListKeywords)
	admin.Post("/keywords", h.Admin.AddKeyword)
	admin.Delete("/keywords/:id", h.Admin.RemoveKeyword)
	admin.Get("/flags", h.Admin.ListFlags)
	admin.Put("/settings/testing-mode", h.Admin.SetTestingMode)
	admin.Post("/ads/:id/activate", h.Admin.ActivateAd)
}

func rateLimiter(opts Options) fiber.Handler {
	limit := opts.AuthRateLimit
	if limit <= 0 {
		limit = 5
	}
	window := opts.AuthRateWindow
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
				"code":  "RATE_LIMITED",
			})
		},
	})
}
