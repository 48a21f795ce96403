package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/jambo-bank/jambo_bank/internal/logging"
)

func TestRequestIDAndAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Get("/ok", func(c *fiber.Ctx) error {
		if logging.RequestID(c.UserContext()) != "req-1" {
			return errors.New("request id missing from context")
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "req-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if resp.Header.Get(requestIDHeader) != "req-1" {
		t.Fatalf("request id not echoed")
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit line: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "req-1" || line["path"] != "/ok" || line["signers"] != float64(0) {
		t.Fatalf("unexpected audit line %v", line)
	}
}
