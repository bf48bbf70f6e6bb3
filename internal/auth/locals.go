package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fintrack/fintrack/internal/identity"
)

const (
	localSession   = "session"
	localSessionID = "session_id"
	localUserID    = "user_id"
)

// Bind stores an authenticated session on the request.
func Bind(c *fiber.Ctx, sid string, sess *identity.Session) {
	c.Locals(localSessionID, sid)
	c.Locals(localSession, sess)
	if id, ok := sess.Current(); ok {
		c.Locals(localUserID, id.ID)
	}
}

// SessionFrom returns the session bound to the request, or nil.
func SessionFrom(c *fiber.Ctx) *identity.Session {
	sess, _ := c.Locals(localSession).(*identity.Session)
	return sess
}

// SessionIDFrom returns the id of the session bound to the request.
func SessionIDFrom(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// UserIDFrom returns the identity id bound to the request.
func UserIDFrom(c *fiber.Ctx) string {
	uid, _ := c.Locals(localUserID).(string)
	return uid
}
