package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

const isolatedCoordinatorTestRedisDB = 13

func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	hosts := []string{env.GetEnv("CACHE_HOST", ""), "cache", "localhost"}
	port := env.GetEnv("CACHE_PORT", "6379")

	var lastErr error
	for _, host := range hosts {
		if host == "" {
			continue
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, port),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       isolatedCoordinatorTestRedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			require.NoError(t, rdb.FlushDB(context.Background()).Err())
			t.Cleanup(func() {
				_ = rdb.FlushDB(context.Background()).Err()
				_ = rdb.Close()
			})
			return rdb
		}
		_ = rdb.Close()
		lastErr = err
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return nil
}

func TestCoordinator_Lease(t *testing.T) {
	c := NewCoordinator(testRedis(t))
	ctx := context.Background()

	ok, err := c.AcquireLease(ctx, "dlq", "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLease(ctx, "dlq", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by worker-a")

	ok, err = c.AcquireLease(ctx, "dlq", "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "owner renews")

	require.NoError(t, c.ReleaseLease(ctx, "dlq", "worker-b"))
	ok, err = c.AcquireLease(ctx, "dlq", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "release by non-owner is ignored")

	require.NoError(t, c.ReleaseLease(ctx, "dlq", "worker-a"))
	ok, err = c.AcquireLease(ctx, "dlq", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCoordinator_LastRuns(t *testing.T) {
	c := NewCoordinator(testRedis(t))
	ctx := context.Background()

	runs, err := c.LastRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.RecordRun(ctx, "deferred-flush", at))

	runs, err = c.LastRuns(ctx)
	require.NoError(t, err)
	assert.True(t, runs["deferred-flush"].Equal(at))
}
