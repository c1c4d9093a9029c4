// Package resilience wraps calls to external providers with bounded retries
// and a circuit breaker.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/seo-lead-finder/internal/config"
)

// Backoff controls retry attempts with exponential backoff and jitter.
type Backoff struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	// JitterFraction spreads each delay by +/- this fraction.
	JitterFraction float64

	// Retryable decides which errors are worth another attempt. Defaults to
	// IsTransient.
	Retryable func(err error) bool
	// OnRetry runs before each sleep.
	OnRetry func(attempt int, err error)
}

// NoRetry is a Backoff that makes exactly one attempt.
var NoRetry = Backoff{MaxAttempts: 1}

// BackoffFromConfig builds a Backoff from pipeline retry settings. Zero
// values fall back to the package defaults.
func BackoffFromConfig(rc config.RetryConfig) Backoff {
	b := Backoff{
		MaxAttempts:    rc.MaxAttempts,
		Initial:        time.Duration(rc.InitialBackoffMs) * time.Millisecond,
		Max:            time.Duration(rc.MaxBackoffMs) * time.Millisecond,
		Multiplier:     rc.Multiplier,
		JitterFraction: rc.JitterFraction,
	}
	return b.withDefaults()
}

func (b Backoff) withDefaults() Backoff {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 1
	}
	if b.Initial <= 0 {
		b.Initial = 500 * time.Millisecond
	}
	if b.Max <= 0 {
		b.Max = 5 * time.Second
	}
	if b.Multiplier <= 0 {
		b.Multiplier = 2.0
	}
	if b.JitterFraction < 0 {
		b.JitterFraction = 0
	}
	if b.Retryable == nil {
		b.Retryable = IsTransient
	}
	return b
}

// Delay returns the sleep before retry number attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.withDefaults()
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	d = math.Min(d, float64(b.Max))
	if b.JitterFraction > 0 {
		d += (rand.Float64()*2 - 1) * d * b.JitterFraction
	}
	return time.Duration(math.Max(d, 0))
}

// DoVal runs fn until it succeeds, returns a non-retryable error, runs out
// of attempts or ctx ends. The last error is returned unchanged.
func DoVal[T any](ctx context.Context, b Backoff, fn func(ctx context.Context) (T, error)) (T, error) {
	b = b.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !b.Retryable(err) || attempt == b.MaxAttempts-1 {
			break
		}

		if b.OnRetry != nil {
			b.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// LogRetry returns an OnRetry callback that logs at warn level.
func LogRetry(provider, op string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying provider call",
			zap.String("provider", provider),
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
