package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff configures Retry. Zero fields take defaults of three attempts
// starting at 100ms and doubling up to 5s. Jitter is the fraction of each
// delay added at random; zero disables it.
type Backoff struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

func (b Backoff) withDefaults() Backoff {
	if b.Attempts <= 0 {
		b.Attempts = 3
	}
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 5 * time.Second
	}
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	b.Jitter = max(0, min(b.Jitter, 1))
	return b
}

// Delay returns the wait before retry number attempt (1-based), without
// jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.withDefaults()
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt-1))
	return time.Duration(min(d, float64(b.Max)))
}

// Retry calls fn until it succeeds, the attempts are used up, or ctx is
// done. The last error is wrapped in the returned error.
func Retry(ctx context.Context, name string, b Backoff, fn func() error) error {
	b = b.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts {
			break
		}

		delay := b.Delay(attempt)
		if b.Jitter > 0 {
			delay += time.Duration(rand.Float64() * b.Jitter * float64(delay))
		}
		logger.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", b.Attempts,
			"next_delay", delay,
			"error", err,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry aborted: %w (last error: %v)", name, ctx.Err(), err)
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", name, b.Attempts, err)
}
