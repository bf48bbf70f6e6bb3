package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/kvstore"
	"github.com/fintrack/fintrack/internal/logging"
	"github.com/fintrack/fintrack/internal/middleware"
)

func newTestApp(t *testing.T, store *kvstore.Store) *fiber.App {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	logger := logging.Discard()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	err := Setup(app, Deps{
		Cfg: config.Config{
			AppEnv:         "test",
			KVBackend:      config.BackendMemory,
			JWTSecret:      "test-secret",
			TokenTTL:       time.Hour,
			IdempotencyTTL: time.Minute,
			LoginRateLimit: 3,
		},
		Store:  store,
		Cache:  cache,
		Logger: logger,
	})
	require.NoError(t, err)
	return app
}

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *client) do(method, path string, body any, headers ...string) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (c *client) register(name, email, password string) map[string]any {
	c.t.Helper()
	status, body := c.do(fiber.MethodPost, "/api/v1/identity/register", map[string]string{
		"name": name, "email": email, "password": password, "country": "US",
	})
	require.Equal(c.t, http.StatusCreated, status, body)
	c.token = body["token"].(map[string]any)["access_token"].(string)
	return body
}

func TestHealthAndPing(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}

	status, body := c.do(fiber.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"].(map[string]any)["redis"])

	status, body = c.do(fiber.MethodGet, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["request_id"])
}

func TestRegisterLoginAndProfile(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}

	body := c.register("Ada", "ada@example.com", "Sup3r-secret!")
	assert.Equal(t, "Strong", body["password_strength"].(map[string]any)["label"])

	status, me := c.do(fiber.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, "+1", me["country_code"])

	status, updated := c.do(fiber.MethodPut, "/api/v1/me", map[string]string{"name": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, status, updated)
	assert.Equal(t, "Ada Lovelace", updated["name"])

	dup := &client{t: t, app: c.app}
	status, _ = dup.do(fiber.MethodPost, "/api/v1/identity/register", map[string]string{
		"name": "X", "email": "ADA@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = dup.do(fiber.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, login := dup.do(fiber.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ada@example.com", "password": "Sup3r-secret!"})
	require.Equal(t, http.StatusOK, status, login)
	assert.Equal(t, "Ada Lovelace", login["user"].(map[string]any)["name"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}

	status, body := c.do(fiber.MethodGet, "/api/v1/accounts", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing bearer token", body["error"])

	c.token = "not-a-jwt"
	status, _ = c.do(fiber.MethodGet, "/api/v1/accounts", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutEndsSession(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}
	c.register("Ada", "ada@example.com", "pw")

	status, _ := c.do(fiber.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(fiber.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLedgerFlow(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}
	c.register("A", "a@x.com", "p1")

	status, acct := c.do(fiber.MethodPost, "/api/v1/accounts", map[string]any{
		"name": "Checking", "kind": "checking", "balance": 100, "currency": "USD",
	})
	require.Equal(t, http.StatusCreated, status, acct)
	accountID := acct["id"].(string)

	status, tx := c.do(fiber.MethodPost, "/api/v1/transactions", map[string]any{
		"account_id": accountID, "amount": -40, "kind": "expense", "category": "food", "description": "groceries",
	})
	require.Equal(t, http.StatusCreated, status, tx)
	assert.Equal(t, "-40", tx["amount"])

	status, list := c.do(fiber.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, status)
	accounts := list["accounts"].([]any)
	require.Len(t, accounts, 1)
	assert.Equal(t, "60", accounts[0].(map[string]any)["balance"])

	status, dash := c.do(fiber.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "$60.00", dash["total_formatted"])
	days := dash["week"].(map[string]any)["days"].([]any)
	require.Len(t, days, 7)
	assert.Equal(t, "40", days[6].(map[string]any)["expense"])

	status, _ = c.do(fiber.MethodPost, "/api/v1/transactions", map[string]any{
		"account_id": "missing", "amount": 5, "kind": "income",
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(fiber.MethodDelete, "/api/v1/accounts/"+accountID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, txs := c.do(fiber.MethodGet, "/api/v1/transactions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, txs["transactions"])
}

func TestLoanRoutes(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}
	c.register("A", "a@x.com", "p1")

	status, loan := c.do(fiber.MethodPost, "/api/v1/loans", map[string]any{
		"name": "Car", "amount": 5000, "purpose": "vehicle", "months": 24,
	})
	require.Equal(t, http.StatusCreated, status, loan)
	assert.Equal(t, "24 months", loan["duration_label"])
	assert.Equal(t, "USD", loan["currency"])
	loanID := loan["id"].(string)

	status, patched := c.do(fiber.MethodPatch, "/api/v1/loans/"+loanID, map[string]any{"balance": 4800})
	require.Equal(t, http.StatusOK, status, patched)
	assert.Equal(t, "4800", patched["balance"])

	status, _ = c.do(fiber.MethodPatch, "/api/v1/loans/missing", map[string]any{"balance": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(fiber.MethodDelete, "/api/v1/loans/"+loanID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, loans := c.do(fiber.MethodGet, "/api/v1/loans", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, loans["loans"])
}

func TestUsersAreIsolated(t *testing.T) {
	app := newTestApp(t, kvstore.NewMemory())
	alice := &client{t: t, app: app}
	bob := &client{t: t, app: app}
	alice.register("Alice", "alice@x.com", "p1")
	bob.register("Bob", "bob@x.com", "p1")

	status, acct := alice.do(fiber.MethodPost, "/api/v1/accounts", map[string]any{"name": "Alice checking"})
	require.Equal(t, http.StatusCreated, status)

	status, list := bob.do(fiber.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, list["accounts"])

	status, _ = bob.do(fiber.MethodPatch, "/api/v1/accounts/"+acct["id"].(string), map[string]any{"name": "mine"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIdempotentAccountCreation(t *testing.T) {
	c := &client{t: t, app: newTestApp(t, kvstore.NewMemory())}
	c.register("A", "a@x.com", "p1")

	body := map[string]any{"name": "Savings", "kind": "savings"}
	status, first := c.do(fiber.MethodPost, "/api/v1/accounts", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, status)
	status, second := c.do(fiber.MethodPost, "/api/v1/accounts", body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, first["id"], second["id"])

	_, list := c.do(fiber.MethodGet, "/api/v1/accounts", nil)
	assert.Len(t, list["accounts"], 1)
}

func TestSessionSurvivesRestart(t *testing.T) {
	store := kvstore.NewMemory()
	c := &client{t: t, app: newTestApp(t, store)}
	c.register("A", "a@x.com", "p1")

	restarted := &client{t: t, app: newTestApp(t, store), token: c.token}
	status, me := restarted.do(fiber.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, status, me)
	assert.Equal(t, "a@x.com", me["email"])
}
