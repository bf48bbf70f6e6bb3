package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/infra"
	"github.com/fintrack/fintrack/internal/middleware"
	"github.com/fintrack/fintrack/internal/routes"
)

// Server wraps the Fiber application and the resources it serves from.
type Server struct {
	app *fiber.App
	cfg config.Config
	res *infra.Resources
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, res *infra.Resources, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	if err := routes.Setup(app, routes.Deps{
		Cfg:    cfg,
		Store:  res.Store,
		DB:     res.DB,
		Cache:  res.Cache,
		Logger: logger,
	}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, res: res}, nil
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
