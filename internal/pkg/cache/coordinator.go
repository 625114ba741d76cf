package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	leaseKeyPrefix = "scheduler:lease:"
	lastRunKey     = "scheduler:last_run"
)

// acquireOrRenew takes the lease when free and extends it when the caller
// already owns it.
var acquireOrRenew = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
if cur then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Coordinator keeps background job state in Redis so several worker
// processes agree on who runs a job and when it last ran.
type Coordinator struct {
	rdb *redis.Client
}

func NewCoordinator(rdb *redis.Client) *Coordinator {
	return &Coordinator{rdb: rdb}
}

// AcquireLease returns true when owner holds the named lease for ttl.
func (c *Coordinator) AcquireLease(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	n, err := acquireOrRenew.Run(ctx, c.rdb, []string{leaseKeyPrefix + name}, owner, ms).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseLease drops the lease if owner still holds it.
func (c *Coordinator) ReleaseLease(ctx context.Context, name, owner string) error {
	return releaseIfOwner.Run(ctx, c.rdb, []string{leaseKeyPrefix + name}, owner).Err()
}

// RecordRun stores the completion time of a job.
func (c *Coordinator) RecordRun(ctx context.Context, job string, at time.Time) error {
	return c.rdb.HSet(ctx, lastRunKey, job, at.UTC().UnixMilli()).Err()
}

// LastRuns returns the last completion time per job.
func (c *Coordinator) LastRuns(ctx context.Context) (map[string]time.Time, error) {
	raw, err := c.rdb.HGetAll(ctx, lastRunKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make(map[string]time.Time, len(raw))
	for job, v := range raw {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[job] = time.UnixMilli(ms).UTC()
	}
	return out, nil
}
