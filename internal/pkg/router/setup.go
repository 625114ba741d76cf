package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marketfox/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Handlers carries the controllers and settings the routes are built from.
type Handlers struct {
	Webhooks    *controllers.WebhookController
	Bookings    *controllers.BookingController
	Preferences *controllers.PreferenceController
	AdminDLQ    *controllers.AdminDLQController

	AdminToken      string
	MetricsUser     string
	MetricsPassword string
	// LimiterStorage backs the webhook rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	LimiterMax     int
}

func InstallRouter(app *fiber.App, h Handlers) {
	// HttpRouter installs the global user context middleware the API routes rely on.
	setup(app, NewHttpRouter(h), NewApiRouter(h))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
