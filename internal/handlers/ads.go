package handlers

import (
	appErrors "pronat/internal/errors"
	"pronat/internal/services/ads"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdHandler struct {
	adService ads.Service
}

func NewAdHandler(adService ads.Service) *AdHandler {
	return &AdHandler{adService: adService}
}

// Create accepts a multipart form with title, link_url, placement and an optional media file.
func (h *AdHandler) Create(c *fiber.Ctx) error {
	input := ads.CreateInput{
		Title:     c.FormValue("title"),
		LinkURL:   c.FormValue("link_url"),
		Placement: c.FormValue("placement"),
	}

	var media *ads.Media
	if fh, err := c.FormFile("media"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return appErrors.ValidationFields(map[string]string{"media": "could not read the uploaded file"})
		}
		defer f.Close()
		media = &ads.Media{
			Filename:    fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Body:        f,
		}
	}

	ad, err := h.adService.Create(c.UserContext(), utils.UserID(c), input, media)
	if err != nil {
		return err
	}
	return utils.Created(c, ad)
}

// ListActive returns the live banners for a placement.
func (h *AdHandler) ListActive(c *fiber.Ctx) error {
	list, err := h.adService.ListActive(c.UserContext(), c.Query("placement"))
	if err != nil {
		return err
	}
	return utils.Success(c, fiber.Map{"data": list})
}
