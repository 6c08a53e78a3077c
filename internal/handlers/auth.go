package handlers

import (
	"time"

	"pronat/internal/config"
	"pronat/internal/services/auth"
	"pronat/internal/services/otp"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	otpService  otp.Service
	authService auth.Service
	refreshTTL  time.Duration
}

func NewAuthHandler(otpService otp.Service, authService auth.Service, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		otpService:  otpService,
		authService: authService,
		refreshTTL:  refreshTTL,
	}
}

// SendOTP emails a one-time code for registration or password reset.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var input struct {
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
		Phone   string `json:"phone"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	err := h.otpService.Issue(c.UserContext(), otp.IssueRequest{
		Email:   input.Email,
		Purpose: input.Purpose,
		Phone:   input.Phone,
	})
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.Map{"message": "verification code sent"})
}

// VerifyOTP redeems a code and starts a session.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.otpService.Verify(c.UserContext(), input.Email, input.Code)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.authService.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

// Refresh accepts the refresh token from the body or the cookie set at login.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.BodyParser(&input)
	if input.RefreshToken == "" {
		input.RefreshToken = c.Cookies("refresh_token")
	}
	if input.RefreshToken == "" {
		return utils.BadRequest(c, "refresh token is required")
	}

	session, err := h.authService.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), utils.UserID(c)); err != nil {
		return err
	}
	c.ClearCookie("access_token", "refresh_token")
	return utils.Success(c, fiber.Map{"message": "logged out"})
}

// SetPassword completes onboarding for an account created through OTP.
func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var input struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.authService.SetPassword(c.UserContext(), utils.UserID(c), input.Password, input.ConfirmPassword)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	session, err := h.authService.ChangePassword(c.UserContext(), utils.UserID(c), input.OldPassword, input.NewPassword)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

func (h *AuthHandler) respondSession(c *fiber.Ctx, session *auth.Session) error {
	h.setAuthCookies(c, session)
	return utils.Success(c, session)
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, session *auth.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    session.AccessToken,
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		Path:     "/",
		SameSite: "Strict",
		MaxAge:   int(session.ExpiresIn),
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    session.RefreshToken,
		HTTPOnly: true,
		Secure:   config.IsProduction(),
		Path:     "/api/auth",
		SameSite: "Strict",
		MaxAge:   int(h.refreshTTL.Seconds()),
	})
}
