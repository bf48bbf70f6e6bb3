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

	"github.com/fintrack/fintrack/internal/logging"
)

func setupIdempotencyApp(t *testing.T, required bool) (*fiber.App, *atomic.Int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls atomic.Int32
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(Idempotency(cache, IdempotencyConfig{TTL: time.Minute, Required: required, Logger: logging.Discard()}))
	app.Post("/resource", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	app.Post("/broken", func(c *fiber.Ctx) error {
		calls.Add(1)
		return c.SendStatus(fiber.StatusServiceUnavailable)
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, path, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header.Get(replayedHeader)
}

func TestIdempotencyRequiresHeaderWhenConfigured(t *testing.T) {
	app, calls := setupIdempotencyApp(t, true)

	status, _, _ := post(t, app, "/resource", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
	if calls.Load() != 0 {
		t.Fatal("handler must not run without a key")
	}
}

func TestIdempotencyOptionalHeaderPassesThrough(t *testing.T) {
	app, calls := setupIdempotencyApp(t, false)

	post(t, app, "/resource", "")
	post(t, app, "/resource", "")
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls.Load())
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t, false)

	status, first, replayed := post(t, app, "/resource", "abc123")
	if status != fiber.StatusCreated || replayed != "" {
		t.Fatalf("unexpected first response %d replayed=%q", status, replayed)
	}

	status, second, replayed := post(t, app, "/resource", "abc123")
	if status != fiber.StatusCreated || replayed != "true" {
		t.Fatalf("unexpected replay %d replayed=%q", status, replayed)
	}
	if first != second {
		t.Fatalf("expected cached payload %s got %s", first, second)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls.Load())
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(second), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	app, calls := setupIdempotencyApp(t, false)

	post(t, app, "/broken", "retry-me")
	status, _, replayed := post(t, app, "/broken", "retry-me")
	if status != fiber.StatusServiceUnavailable || replayed != "" {
		t.Fatalf("unexpected retry response %d replayed=%q", status, replayed)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry to reach the handler, got %d calls", calls.Load())
	}
}
