package dlq

import (
	"math"
	"math/rand"
	"time"
)

// maxDelay caps the schedule far beyond any sensible retry ceiling.
const maxDelay = 10 * 365 * 24 * time.Hour

// Backoff computes when a failed item is due again:
// now + Base * Multiplier^attempts, optionally stretched by up to Jitter*delay.
type Backoff struct {
	Base       time.Duration
	Multiplier float64
	// Jitter is a fraction of the delay. It is clamped below Multiplier-1 so
	// the schedule stays strictly increasing in attempts.
	Jitter float64

	rand func() float64
}

// DefaultBackoff retries after 1m, 2m, 4m, ...
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Minute, Multiplier: 2}
}

// Delay returns the wait before the next run after attempts failures.
func (b Backoff) Delay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	base := b.Base
	if base <= 0 {
		base = time.Minute
	}
	mult := b.Multiplier
	if mult <= 1 {
		mult = 2
	}

	d := float64(base) * math.Pow(mult, float64(attempts))
	if j := b.jitter(mult); j > 0 {
		r := rand.Float64
		if b.rand != nil {
			r = b.rand
		}
		d += d * j * r()
	}
	if d >= float64(maxDelay) || math.IsInf(d, 0) {
		return maxDelay
	}
	return time.Duration(d)
}

// NextRun is ComputeNextRun bound to an explicit clock reading.
func (b Backoff) NextRun(now time.Time, attempts int) time.Time {
	return now.Add(b.Delay(attempts)).UTC()
}

func (b Backoff) jitter(mult float64) float64 {
	if b.Jitter <= 0 {
		return 0
	}
	limit := (mult - 1) * 0.99
	if b.Jitter > limit {
		return limit
	}
	return b.Jitter
}
