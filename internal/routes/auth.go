package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/auth"
)

// RegisterAuthRoutes wires the public registration and login endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/identity/register", h.Register)
	if rateLimiter != nil {
		r.Post("/auth/login", rateLimiter, h.Login)
	} else {
		r.Post("/auth/login", h.Login)
	}
}

// RegisterSessionRoutes wires endpoints acting on the caller's own session.
func RegisterSessionRoutes(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
}
