package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/auth"
)

// BearerAuth resolves the bearer token to a live session and binds it to the request.
func BearerAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		raw := strings.TrimSpace(authz[len("Bearer "):])

		sid, sess, err := svc.Authenticate(c.UserContext(), raw)
		if err != nil {
			return err
		}
		auth.Bind(c, sid, sess)
		return c.Next()
	}
}
