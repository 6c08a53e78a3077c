package handlers

import (
	"errors"

	appErrors "pronat/internal/errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const genericError = "something went wrong on our side"

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind appErrors.Kind) int {
	switch kind {
	case appErrors.KindValidation:
		return fiber.StatusBadRequest
	case appErrors.KindUnauthorized:
		return fiber.StatusUnauthorized
	case appErrors.KindForbidden, appErrors.KindCompliance:
		return fiber.StatusForbidden
	case appErrors.KindNotFound:
		return fiber.StatusNotFound
	case appErrors.KindConflict:
		return fiber.StatusConflict
	case appErrors.KindUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler or middleware as
// {"error": message, "code": CODE}. Internal details never reach the client.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
				"code":  codeForStatus(fe.Code),
			})
		}

		de, ok := appErrors.As(err)
		if !ok {
			log.Error("unhandled error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": genericError,
				"code":  "INTERNAL_ERROR",
			})
		}

		status := StatusFor(de.Kind)
		body := fiber.Map{"error": de.Message, "code": de.Code}
		switch de.Kind {
		case appErrors.KindValidation:
			if len(de.Fields) > 0 {
				body["fields"] = de.Fields
			}
		case appErrors.KindUnavailable:
			log.Warn("dependency unavailable",
				zap.String("path", c.Path()),
				zap.String("code", de.Code),
				zap.Error(err),
			)
			body["retryable"] = true
		case appErrors.KindInternal:
			log.Error("internal error", zap.String("path", c.Path()), zap.Error(err))
			body["error"] = genericError
		}
		return c.Status(status).JSON(body)
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "ROUTE_NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}

// parseBody decodes the JSON body, reporting malformed input as a validation error.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return appErrors.Validation("invalid request body")
	}
	return nil
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, appErrors.ValidationFields(map[string]string{name: "must be a positive integer"})
	}
	return uint(id), nil
}

