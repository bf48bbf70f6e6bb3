package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/ledger"
	"github.com/fintrack/fintrack/internal/logging"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", identity.ErrInvalidProfile), http.StatusBadRequest},
		{fmt.Errorf("%w: zero", ledger.ErrInvalid), http.StatusBadRequest},
		{identity.ErrInvalidCredentials, http.StatusUnauthorized},
		{ledger.ErrUnauthenticated, http.StatusUnauthorized},
		{auth.ErrSessionEnded, http.StatusUnauthorized},
		{fmt.Errorf("account x: %w", ledger.ErrNotFound), http.StatusNotFound},
		{identity.ErrNotFound, http.StatusNotFound},
		{identity.ErrDuplicateEmail, http.StatusConflict},
		{fiber.NewError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Get("/dup", func(c *fiber.Ctx) error { return identity.ErrDuplicateEmail })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db password leaked") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/dup", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError || strings.Contains(body.String(), "password") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body.String())
	}
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.Header.Get(requestIDHeader) != "abc" {
		t.Fatalf("expected echoed id, got %q", resp.Header.Get(requestIDHeader))
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if len(resp.Header.Get(requestIDHeader)) != 36 {
		t.Fatalf("expected minted uuid, got %q", resp.Header.Get(requestIDHeader))
	}
}

func TestLoginRateLimitPerEmail(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	attempt := func(email string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if got := attempt("a@x.com"); got != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, got)
		}
	}
	if got := attempt("A@x.com"); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", got)
	}
	if got := attempt("b@x.com"); got != http.StatusOK {
		t.Fatalf("other emails must not be limited, got %d", got)
	}

	mr.FastForward(61 * time.Second)
	if got := attempt("a@x.com"); got != http.StatusOK {
		t.Fatalf("expected window reset, got %d", got)
	}
}

func TestLoginRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", resp.StatusCode)
		}
	}
}
