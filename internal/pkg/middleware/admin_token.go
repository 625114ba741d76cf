package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Marketfox/internal/pkg/usercontext"
)

// HeaderAdminToken carries the operator token for /admin routes.
const HeaderAdminToken = "X-Admin-Token"

// AdminTokenMiddleware authenticates operator requests against token. An
// empty token disables the admin surface entirely.
func AdminTokenMiddleware(token string) fiber.Handler {
	token = strings.TrimSpace(token)
	if token == "" {
		log.Warn("[Admin] ADMIN_API_TOKEN not set, admin routes are disabled")
	}
	return func(c *fiber.Ctx) error {
		if token == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "admin_disabled", "message": "Admin API is not configured"})
		}

		got := extractAdminToken(c)
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing admin token"})
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid admin token"})
		}

		userCtx := usercontext.GetUserContext(c)
		userCtx.IsAdmin = true
		c.Locals(usercontext.KeyUserContext, userCtx)
		c.Locals(usercontext.KeyIsAdmin, true)
		return c.Next()
	}
}

func extractAdminToken(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Get(HeaderAdminToken)); v != "" {
		return v
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
