package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/ledger"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, identity.ErrInvalidProfile), errors.Is(err, ledger.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, ledger.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionEnded):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, identity.ErrDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error as {"error": message}. Unexpected errors are
// logged and their message hidden.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			requestID := RequestIDFrom(c)
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.String("request_id", requestID), slog.Any("error", err))
			msg = http.StatusText(status)
		}
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
}
