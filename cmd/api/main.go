package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/infra"
	"github.com/fintrack/fintrack/internal/logging"
	"github.com/fintrack/fintrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
		logger.Warn("JWT_SECRET not set, using a development secret")
	}

	ctx := context.Background()

	res, err := infra.Open(ctx, cfg)
	if err != nil {
		logger.Error("open storage", "backend", cfg.KVBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("close resources", "error", err)
		}
	}()

	srv, err := server.New(cfg, res, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}
	logger.Info("starting server", "address", cfg.Address(), "backend", cfg.KVBackend, "env", cfg.AppEnv)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
