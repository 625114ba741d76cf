package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// Reachable pings the shared client with a short timeout.
func Reachable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return GetClient().Ping(ctx).Err() == nil
}

// NewFiberStorage returns a fiber.Storage on the same Redis server as the
// cache, in its own database so limiter counters never mix with cache keys.
func NewFiberStorage(database int) fiber.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	opts := GetClient().Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if opts.Password != "" {
		password = opts.Password
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: database,
		Reset:    false,
	})
}
