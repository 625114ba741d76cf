package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/Marketfox/app/controllers"
	"github.com/ManuelReschke/Marketfox/internal/pkg/cache"
	"github.com/ManuelReschke/Marketfox/internal/pkg/database"
	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
	"github.com/ManuelReschke/Marketfox/internal/pkg/router"
)

func main() {
	app, svc := NewApplication()
	defer svc.Close()

	// Only worker-role processes run background jobs
	if env.GetEnvBool("WORKER_ROLE", false) {
		svc.scheduler.Start(context.Background())
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		_ = app.Shutdown()
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *services) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	basePath := findBasePath()
	svc := newServices(database.GetDB())

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Marketfox",
		BodyLimit: 1 << 20, // webhook bodies are small
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		log.Println("openapi.yml not found, API docs disabled")
	}

	var limiterStorage fiber.Storage
	if cache.Reachable() {
		limiterStorage = cache.NewFiberStorage(env.GetEnvInt("LIMITER_REDIS_DB", 2))
	}

	// ROUTER
	router.InstallRouter(app, router.Handlers{
		Webhooks:        controllers.NewWebhookController(svc.gateway, svc.smsSender),
		Bookings:        controllers.NewBookingController(svc.bookings),
		Preferences:     controllers.NewPreferenceController(svc.dispatcher),
		AdminDLQ:        controllers.NewAdminDLQController(svc.runner, svc.scheduler),
		AdminToken:      env.GetEnv("ADMIN_API_TOKEN", ""),
		MetricsUser:     env.GetEnv("METRICS_USER", ""),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
		LimiterStorage:  limiterStorage,
		LimiterMax:      env.GetEnvInt("WEBHOOK_RATE_LIMIT", 600),
	})

	return app, svc
}

// findBasePath locates the project root holding public/docs.
func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/marketfox to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path
		}
	}
	return ""
}
