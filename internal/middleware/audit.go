package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/auth"
)

// Audit emits one structured log line per request, including how many keys
// signed it.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		duration := time.Since(start)
		requestID, _ := c.Locals(requestIDHeader).(string)
		signers := auth.SignersFromLocal(c.Locals(auth.SignersLocalKey))

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Duration("duration", duration),
			slog.Int("signers", len(signers)),
		}
		if requestID != "" {
			attrs = append(attrs, slog.String("request_id", requestID))
		}
		if err != nil {
			// The status is not final until the error handler runs.
			attrs = append(attrs, slog.Any("error", err))
			logger.Warn("request failed", attrs...)
			return err
		}

		attrs = append(attrs, slog.Int("status", c.Response().StatusCode()))
		logger.Info("request completed", attrs...)
		return nil
	}
}
