package handlers

import (
	"mime/multipart"
	"strconv"

	appErrors "pronat/internal/errors"
	"pronat/internal/repositories"
	"pronat/internal/services/listing"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PropertyHandler struct {
	listingService listing.Service
}

func NewPropertyHandler(listingService listing.Service) *PropertyHandler {
	return &PropertyHandler{listingService: listingService}
}

// Create stores a draft and, when "publish" is set, publishes it in the same request.
func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	var input listing.CreateInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	prop, err := h.listingService.CreateDraft(c.UserContext(), utils.UserID(c), input)
	if err != nil {
		if prop != nil {
			// the draft was stored even though publishing failed
			c.Set("X-Draft-Id", strconv.FormatUint(uint64(prop.ID), 10))
		}
		return err
	}
	return utils.Created(c, prop)
}

func (h *PropertyHandler) Publish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	prop, err := h.listingService.Publish(c.UserContext(), utils.UserID(c), id)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

func (h *PropertyHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		Status string `json:"status"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	prop, err := h.listingService.SetStatus(c.UserContext(), utils.UserID(c), id, input.Status)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

// AddImages uploads the "images" files of a multipart form.
func (h *PropertyHandler) AddImages(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return appErrors.ValidationFields(map[string]string{"images": "expected a multipart form"})
	}

	files := form.File["images"]
	uploads := make([]listing.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return appErrors.ValidationFields(map[string]string{"images": "could not read " + fh.Filename})
		}
		defer f.Close()
		uploads = append(uploads, listing.Upload{
			Filename:    fh.Filename,
			ContentType: contentType(fh),
			Size:        fh.Size,
			Body:        f,
		})
	}

	prop, err := h.listingService.AddImages(c.UserContext(), utils.UserID(c), id, uploads)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

func (h *PropertyHandler) Mine(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	props, total, err := h.listingService.ListMine(c.UserContext(), utils.UserID(c), p.Offset, p.Limit)
	if err != nil {
		return err
	}
	return utils.Success(c, utils.NewPaginatedResponse(props, total, p))
}

// Search lists active, unexpired listings. Featured and urgent listings come first.
func (h *PropertyHandler) Search(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	filter := repositories.PropertyFilter{
		City:         c.Query("city"),
		ListingType:  c.Query("listing_type"),
		PropertyType: c.Query("property_type"),
		MinBedrooms:  c.QueryInt("min_bedrooms", 0),
		Offset:       p.Offset,
		Limit:        p.Limit,
	}

	fields := map[string]string{}
	filter.MinPrice = queryDecimal(c, "min_price", fields)
	filter.MaxPrice = queryDecimal(c, "max_price", fields)
	if len(fields) > 0 {
		return appErrors.ValidationFields(fields)
	}

	props, total, err := h.listingService.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return utils.Success(c, utils.NewPaginatedResponse(props, total, p))
}

func (h *PropertyHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	prop, err := h.listingService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.Success(c, prop)
}

func (h *PropertyHandler) RecordView(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.listingService.RecordView(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PropertyHandler) RecordContact(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.listingService.RecordContact(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func queryDecimal(c *fiber.Ctx, key string, fields map[string]string) *decimal.Decimal {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[key] = "must be a number"
		return nil
	}
	return &d
}

func contentType(fh *multipart.FileHeader) string {
	return fh.Header.Get(fiber.HeaderContentType)
}
