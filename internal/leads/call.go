package leads

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/seo-lead-finder/internal/metrics"
	"github.com/sells-group/seo-lead-finder/internal/resilience"
)

// callPolicy bounds calls to one external provider.
type callPolicy struct {
	provider string
	limiter  *rate.Limiter
	timeout  time.Duration
	backoff  resilience.Backoff
	breaker  *resilience.Breaker
}

// call runs fn under p. Each attempt waits on the limiter, passes through
// the breaker and gets its own timeout; transient failures are retried.
func call[T any](ctx context.Context, p callPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := func(ctx context.Context) (T, error) {
		var zero T
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return zero, eris.Wrapf(err, "leads: %s rate limit", p.provider)
			}
		}
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		start := time.Now()
		v, err := fn(ctx)
		metrics.ObserveProviderCall(p.provider, err, time.Since(start))
		return v, err
	}

	guarded := attempt
	if p.breaker != nil {
		guarded = func(ctx context.Context) (T, error) {
			return resilience.ExecuteVal(ctx, p.breaker, attempt)
		}
	}

	b := p.backoff
	if b.OnRetry == nil {
		b.OnRetry = resilience.LogRetry(p.provider, op)
	}
	return resilience.DoVal(ctx, b, guarded)
}
