package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jambo-bank/jambo_bank/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *int32, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	logger := logging.Discard()
	var calls int32
	app.Use(Idempotency(cache, time.Minute, logger))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "call": n})
	})
	app.Post("/flaky", func(c *fiber.Ctx) error {
		atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusServiceUnavailable).SendString("try later")
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, &calls, cleanup
}

func post(t *testing.T, app *fiber.App, path, key, body string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload), resp.Header.Get(idempotentReplayed)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	if status, _, _ := post(t, app, "/transfers", "", "{}"); status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls, cleanup := setupTestApp(t)
	defer cleanup()

	status, payload, replayed := post(t, app, "/transfers", "abc123", `{"amount":1}`)
	if status != fiber.StatusCreated || replayed != "" {
		t.Fatalf("first request: status %d replayed %q", status, replayed)
	}

	// Second request should return the cached response without invoking handler again.
	status2, cachedPayload, replayed2 := post(t, app, "/transfers", "abc123", `{"amount":1}`)
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status2)
	}
	if cachedPayload != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cachedPayload)
	}
	if replayed2 != "true" {
		t.Fatalf("expected replay marker")
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("handler ran %d times", atomic.LoadInt32(calls))
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cachedPayload), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	app, calls, cleanup := setupTestApp(t)
	defer cleanup()

	post(t, app, "/transfers", "k1", `{"amount":1}`)
	if status, _, _ := post(t, app, "/transfers", "k1", `{"amount":2}`); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected %d got %d", fiber.StatusUnprocessableEntity, status)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("handler ran %d times", atomic.LoadInt32(calls))
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	app, calls, cleanup := setupTestApp(t)
	defer cleanup()

	post(t, app, "/flaky", "k2", "{}")
	if status, _, _ := post(t, app, "/flaky", "k2", "{}"); status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected handler to run again, got %d", status)
	}
	if atomic.LoadInt32(calls) != 2 {
		t.Fatalf("expected two handler runs, got %d", atomic.LoadInt32(calls))
	}
}
