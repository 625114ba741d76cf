package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marketfox/internal/pkg/middleware"
)

type ApiRouter struct {
	h Handlers
}

func (r ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.RequireUser)

	if r.h.Bookings != nil {
		v1.Post("/bookings", r.h.Bookings.HandleCreateBooking)
		v1.Get("/bookings/:id", r.h.Bookings.HandleGetBooking)
		v1.Post("/bookings/:id/:action", r.h.Bookings.HandleBookingAction)
	}

	if r.h.Preferences != nil {
		v1.Get("/me/notification-preferences", r.h.Preferences.HandleGetPreferences)
		v1.Put("/me/notification-preferences", r.h.Preferences.HandleUpdatePreferences)
	}
}

func NewApiRouter(h Handlers) *ApiRouter {
	return &ApiRouter{h: h}
}
