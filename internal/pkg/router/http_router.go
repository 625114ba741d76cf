package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Marketfox/internal/pkg/middleware"
)

type HttpRouter struct {
	h Handlers
}

func (r HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	r.registerPublicRoutes(app)
	r.registerAdminRoutes(app)
}

func NewHttpRouter(h Handlers) *HttpRouter {
	return &HttpRouter{h: h}
}
