package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marketfox/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request from the
// X-User-ID header the upstream auth layer forwards. Requests without a
// valid id run as anonymous.
func UserContextMiddleware(c *fiber.Ctx) error {
	userCtx := usercontext.UserContext{}

	raw := strings.TrimSpace(c.Get(usercontext.HeaderUserID))
	if raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			userCtx.UserID = uint(id)
			userCtx.IsLoggedIn = true
		}
	}

	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyUserID, userCtx.UserID)
	return c.Next()
}
