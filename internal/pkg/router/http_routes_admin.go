package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/Marketfox/internal/pkg/middleware"
)

func (r HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminAuth := middleware.AdminTokenMiddleware(r.h.AdminToken)

	// fiber runtime monitor
	app.Get("/monitor", adminAuth, monitor.New())

	adminGroup := app.Group("/admin", adminAuth)
	if r.h.AdminDLQ == nil {
		return
	}
	adminGroup.Get("/dlq/backlog", r.h.AdminDLQ.HandleBacklog)
	adminGroup.Post("/dlq/webhook/:id/replay", r.h.AdminDLQ.HandleReplayWebhook)
	adminGroup.Post("/dlq/sms/:id/replay", r.h.AdminDLQ.HandleReplaySms)
	adminGroup.Get("/scheduler/runs", r.h.AdminDLQ.HandleSchedulerRuns)
}
