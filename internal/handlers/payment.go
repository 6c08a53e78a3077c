package handlers

import (
	"pronat/internal/repositories"
	"pronat/internal/services/payment"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService payment.Service
	catalog        repositories.CatalogRepository
	log            *zap.Logger
}

func NewPaymentHandler(paymentService payment.Service, catalog repositories.CatalogRepository, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		catalog:        catalog,
		log:            log,
	}
}

// Packages lists every purchasable credit, extra and ad package.
func (h *PaymentHandler) Packages(c *fiber.Ctx) error {
	catalog, err := h.catalog.Active(c.UserContext())
	if err != nil {
		return err
	}
	return utils.Success(c, catalog)
}

func (h *PaymentHandler) Checkout(c *fiber.Ctx) error {
	var input payment.CheckoutRequest
	if err := parseBody(c, &input); err != nil {
		return err
	}
	result, err := h.paymentService.CreateCheckout(c.UserContext(), utils.UserID(c), input)
	if err != nil {
		return err
	}
	return utils.Success(c, result)
}

// Webhook answers 200 for applied and duplicate deliveries, 400 for events that
// will never succeed and 500 otherwise so the provider retries.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	result, err := h.paymentService.HandleWebhook(c.UserContext(), c.Body(), signature)
	switch {
	case err == nil:
		return utils.Success(c, fiber.Map{"received": true, "processed": result.Processed})
	case payment.IsDuplicate(err):
		return utils.Success(c, fiber.Map{"received": true, "duplicate": true})
	case payment.IsClientError(err):
		return err
	default:
		h.log.Error("webhook will be retried", zap.Error(err))
		return utils.Respond(c, fiber.StatusInternalServerError, fiber.Map{
			"error": genericError,
			"code":  "WEBHOOK_FAILED",
		})
	}
}
