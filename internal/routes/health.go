package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const probeKey = "fintrack.healthz"

// RegisterHealthRoutes adds a readiness endpoint covering every configured dependency.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"store": "ok"}
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}

		record("store", d.Store.Set(ctx, probeKey, []byte(`"`+time.Now().UTC().Format(time.RFC3339)+`"`)))
		if d.DB != nil {
			record("postgres", d.DB.Ping(ctx))
		}
		if d.Cache != nil {
			record("redis", d.Cache.Ping(ctx).Err())
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"backend":   d.Cfg.KVBackend,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
