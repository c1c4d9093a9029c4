package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sells-group/seo-lead-finder/internal/config"
)

func fastBackoff(attempts int) Backoff {
	return Backoff{MaxAttempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestDoVal_FirstAttempt(t *testing.T) {
	calls := 0
	got, err := DoVal(context.Background(), fastBackoff(3), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("got %q after %d calls, want ok after 1", got, calls)
	}
}

func TestDoVal_RetriesTransient(t *testing.T) {
	calls := 0
	var retried []int
	b := fastBackoff(3)
	b.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	got, err := DoVal(context.Background(), b, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewTransientError(errors.New("busy"), 503)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("got %d after %d calls", got, calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v, want [1 2]", retried)
	}
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	want := NewTransientError(errors.New("down"), 500)
	_, err := DoVal(context.Background(), fastBackoff(2), func(context.Context) (int, error) {
		calls++
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want last error", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDoVal_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastBackoff(5), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoVal_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, _ = DoVal(context.Background(), Backoff{}, func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("x"), 429)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoVal_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := Backoff{MaxAttempts: 5, Initial: time.Hour, Max: time.Hour}
	b.OnRetry = func(int, error) { cancel() }

	calls := 0
	start := time.Now()
	_, err := DoVal(ctx, b, func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("busy"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if time.Since(start) > time.Second {
		t.Error("DoVal slept past cancellation")
	}
}

func TestBackoff_DelayCapped(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: 300 * time.Millisecond, Multiplier: 2}
	cases := map[int]time.Duration{0: 100 * time.Millisecond, 1: 200 * time.Millisecond, 2: 300 * time.Millisecond, 6: 300 * time.Millisecond}
	for attempt, want := range cases {
		if got := b.Delay(attempt); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := Backoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2, JitterFraction: 0.5}
	for range 100 {
		d := b.Delay(0)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("Delay(0) = %v outside jitter range", d)
		}
	}
}

func TestBackoffFromConfig(t *testing.T) {
	b := BackoffFromConfig(config.RetryConfig{MaxAttempts: 2, InitialBackoffMs: 250, MaxBackoffMs: 1000, Multiplier: 3, JitterFraction: 0.1})
	if b.MaxAttempts != 2 || b.Initial != 250*time.Millisecond || b.Max != time.Second || b.Multiplier != 3 {
		t.Errorf("unexpected backoff %+v", b)
	}

	d := BackoffFromConfig(config.RetryConfig{})
	if d.MaxAttempts != 1 || d.Initial != 500*time.Millisecond || d.Multiplier != 2 {
		t.Errorf("unexpected defaults %+v", d)
	}
}
