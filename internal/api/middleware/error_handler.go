package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

// StatusFor maps a domain error onto an HTTP status code.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if models.IsValidation(err) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, utils.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, models.ErrStateNotFound), errors.Is(err, models.ErrStateExpired), errors.Is(err, models.ErrStateUsed):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrExternal):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as {"error": ...}.
// Internal errors are logged and never echoed to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	body := fiber.Map{"error": err.Error()}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
		body["error"] = verr.Message
	}

	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		body["error"] = "Internal server error"
	}
	return c.Status(status).JSON(body)
}
