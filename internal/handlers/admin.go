package handlers

import (
	"pronat/internal/services/ads"
	"pronat/internal/services/auth"
	"pronat/internal/services/compliance"
	"pronat/internal/services/credit"
	"pronat/internal/services/extras"
	"pronat/internal/services/listing"
	"pronat/internal/services/settings"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the moderation and grant endpoints under /api/admin.
type AdminHandler struct {
	authService       auth.Service
	creditService     credit.Service
	listingService    listing.Service
	extrasService     extras.Service
	complianceService compliance.Service
	settingsService   settings.Service
	adService         ads.Service
}

func NewAdminHandler(
	authService auth.Service,
	creditService credit.Service,
	listingService listing.Service,
	extrasService extras.Service,
	complianceService compliance.Service,
	settingsService settings.Service,
	adService ads.Service,
) *AdminHandler {
	return &AdminHandler{
		authService:       authService,
		creditService:     creditService,
		listingService:    listingService,
		extrasService:     extrasService,
		complianceService: complianceService,
		settingsService:   settingsService,
		adService:         adService,
	}
}

func (h *AdminHandler) GrantCredits(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		Credits int `json:"credits"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	record, err := h.creditService.Grant(c.UserContext(), utils.UserID(c), userID, input.Credits)
	if err != nil {
		return err
	}
	return utils.Created(c, record)
}

func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.authService.SetStatus(c.UserContext(), utils.UserID(c), userID, input.Status)
	if err != nil {
		return err
	}
	return utils.Success(c, user)
}

func (h *AdminHandler) GrantExtra(c *fiber.Ctx) error {
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		Type         string `json:"type"`
		DurationDays int    `json:"duration_days"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	prop, err := h.extrasService.AdminGrant(c.UserContext(), utils.UserID(c), propertyID, input.Type, input.DurationDays)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

func (h *AdminHandler) SetPropertyStatus(c *fiber.Ctx) error {
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	prop, err := h.listingService.AdminSetStatus(c.UserContext(), utils.UserID(c), propertyID, input.Status)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

func (h *AdminHandler) ListKeywords(c *fiber.Ctx) error {
	keywords, err := h.complianceService.ListKeywords(c.UserContext())
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.Map{"data": keywords})
}

func (h *AdminHandler) AddKeyword(c *fiber.Ctx) error {
	var input struct {
		Keyword string `json:"keyword"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	kw, err := h.complianceService.AddKeyword(c.UserContext(), input.Keyword)
	if err != nil {
		return err
	}
	return utils.Created(c, kw)
}

func (h *AdminHandler) RemoveKeyword(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.complianceService.RemoveKeyword(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListFlags pages through compliance flags, newest first.
func (h *AdminHandler) ListFlags(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	flags, total, err := h.complianceService.ListFlags(c.UserContext(), p.Offset, p.Limit)
	if err != nil {
		return err
	}
	return utils.Success(c, utils.NewPaginatedResponse(flags, total, p))
}

func (h *AdminHandler) SetTestingMode(c *fiber.Ctx) error {
	var input struct {
		Enabled *bool `json:"enabled"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	if input.Enabled == nil {
		return utils.BadRequest(c, "enabled is required")
	}
	if err := h.settingsService.SetTestingMode(c.UserContext(), *input.Enabled); err != nil {
		return err
	}
	return utils.Success(c, fiber.Map{"testing_mode": *input.Enabled})
}

func (h *AdminHandler) ActivateAd(c *fiber.Ctx) error {
	adID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		DurationDays int `json:"duration_days"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	ad, err := h.adService.AdminActivate(c.UserContext(), utils.UserID(c), adID, input.DurationDays)
	if err != nil {
		return err
	}
	return utils.Success(c, ad)
}
