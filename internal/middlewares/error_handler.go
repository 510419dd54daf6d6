package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
)

const msgInternalError = "Internal server error"

// ErrorHandler writes every error escaping a handler as the JSON envelope.
// Internal errors are logged and answered with a generic message.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"message": fiberErr.Message,
		})
	}

	code := apperr.StatusCode(err)
	message := apperr.Message(err)
	if code == fiber.StatusInternalServerError {
		slog.Error("Unhandled error", "method", ctx.Method(), "path", ctx.Path(), "error", err)
		message = msgInternalError
	}
	return ctx.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
