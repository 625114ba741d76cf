package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultWebhookLimit = 600

func (r HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus scrape endpoint, optionally behind basic auth
	metricsHandler := adaptor.HTTPHandler(promhttp.Handler())
	if r.h.MetricsUser != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{r.h.MetricsUser: r.h.MetricsPassword},
		}), metricsHandler)
	} else {
		app.Get("/metrics", metricsHandler)
	}

	// Provider webhooks (no auth, signature-verified in the gateway)
	webhooks := app.Group("/webhooks", webhookLimiter(r.h))
	if r.h.Webhooks != nil {
		webhooks.Post("/sms/status", r.h.Webhooks.HandleSmsStatus)
		webhooks.Post("/:provider", r.h.Webhooks.HandleProviderWebhook)
	}
}

// webhookLimiter bounds deliveries per provider and source IP.
func webhookLimiter(h Handlers) fiber.Handler {
	limit := h.LimiterMax
	if limit <= 0 {
		limit = defaultWebhookLimit
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		Storage:    h.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "webhook:" + c.Path() + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many webhook deliveries",
			})
		},
	})
}
