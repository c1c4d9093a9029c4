package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the provider while the
// breaker is open.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// Breaker stops calling a provider after Threshold consecutive failures and
// lets a single probe through once Cooldown has passed.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	onChange  func(name string, from, to State)
	counts    func(err error) bool
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker. Non-positive arguments use 5
// failures and a 30 second cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// OnStateChange registers a transition callback. Call before first use.
func (b *Breaker) OnStateChange(fn func(name string, from, to State)) *Breaker {
	b.onChange = fn
	return b
}

// CountIf restricts which errors count as provider failures. Errors for
// which fn returns false mean the provider answered, and are recorded like a
// success. Call before first use.
func (b *Breaker) CountIf(fn func(err error) bool) *Breaker {
	b.counts = fn
	return b
}

// Name returns the provider name the breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, reporting half-open once an open
// breaker's cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// ExecuteVal runs fn through the breaker. Context cancellation by the
// caller does not count as a provider failure, and neither does an error
// rejected by the CountIf classifier.
func ExecuteVal[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !b.allow() {
		return zero, eris.Wrapf(ErrCircuitOpen, "resilience: %s", b.name)
	}
	val, err := fn(ctx)
	switch {
	case err == nil:
		b.record(false, true)
	case ctx.Err() != nil:
		b.record(false, false)
	case b.counts != nil && !b.counts(err):
		b.record(false, true)
	default:
		b.record(true, false)
	}
	return val, err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) record(failed, succeeded bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
	}

	switch {
	case succeeded:
		b.failures = 0
		if b.state != StateClosed {
			b.setState(StateClosed)
		}
	case failed:
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.threshold {
			b.openedAt = b.now()
			if b.state != StateOpen {
				b.setState(StateOpen)
			}
		}
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	b.state = to
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
