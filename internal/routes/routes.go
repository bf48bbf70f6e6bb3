package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fintrack/fintrack/internal/auth"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/kvstore"
	"github.com/fintrack/fintrack/internal/ledger"
	"github.com/fintrack/fintrack/internal/middleware"
	"github.com/fintrack/fintrack/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Store  *kvstore.Store
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil {
		return fmt.Errorf("routes: key-value store is required")
	}
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	lat := d.Cfg.Latency
	ids := identity.NewService(d.Store, identity.Options{
		AuthDelay:    lat.Auth,
		ProfileDelay: lat.Profile,
		RestoreDelay: lat.Restore,
		Logger:       d.Logger,
	})
	ledgerSvc := ledger.NewService(d.Store, ledger.Options{
		Delay:    lat.Ledger,
		Notifier: notification.NewLoggerNotifier(d.Logger),
		Logger:   d.Logger,
	})
	authSvc := auth.NewService(ids, auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.TokenTTL), d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	authHandler := auth.NewHandler(authSvc)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))

	// Protected routes
	protected := api.Group("", middleware.BearerAuth(authSvc))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, middleware.IdempotencyConfig{
			TTL:    d.Cfg.IdempotencyTTL,
			Logger: d.Logger,
		}))
	}
	RegisterSessionRoutes(protected, authHandler)
	RegisterLedgerRoutes(protected, ledger.NewHandler(ledgerSvc, time.Local))

	return nil
}
