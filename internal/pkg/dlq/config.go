package dlq

import (
	"time"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// Config holds the runner and backoff settings.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	Backoff      Backoff
}

// ConfigFromEnv reads DLQ_* variables with sensible defaults.
func ConfigFromEnv() Config {
	return Config{
		PollInterval: env.GetEnvDuration("DLQ_POLL_INTERVAL", 30*time.Second),
		BatchSize:    env.GetEnvInt("DLQ_BATCH_SIZE", 50),
		MaxAttempts:  env.GetEnvInt("DLQ_MAX_ATTEMPTS", 10),
		Backoff: Backoff{
			Base:       env.GetEnvDuration("DLQ_BASE_DELAY", time.Minute),
			Multiplier: env.GetEnvFloat("DLQ_MULTIPLIER", 2),
			Jitter:     env.GetEnvFloat("DLQ_JITTER", 0),
		},
	}
}
