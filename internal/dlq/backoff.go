package dlq

import (
	"math/rand"
	"time"
)

const (
	DefaultBaseBackoff = time.Minute
	DefaultMaxBackoff  = 16 * time.Minute
	jitterFraction     = 0.1
)

// Backoff returns the delay before retry number attempt: base doubling per
// attempt, capped, plus random jitter up to 10% of the computed delay. The
// jitter spreads out retries so a transient CLCA outage does not produce a
// synchronized retry storm when the queue drains.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultBaseBackoff
	}
	if max <= 0 {
		max = DefaultMaxBackoff
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}

	jitter := time.Duration(rand.Float64() * jitterFraction * float64(delay))
	return delay + jitter
}
