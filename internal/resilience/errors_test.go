package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad input"), false},
		{"transient", NewTransientError(errors.New("x"), 503), true},
		{"wrapped transient", fmt.Errorf("call: %w", NewTransientError(errors.New("x"), 429)), true},
		{"net timeout", timeoutErr{}, true},
		{"reset message", errors.New("read: connection reset by peer"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}

func TestStatusError(t *testing.T) {
	err := StatusError("places", 503, "unavailable")
	var te *TransientError
	if !errors.As(err, &te) || te.StatusCode != 503 {
		t.Fatalf("expected transient 503, got %v", err)
	}

	err = StatusError("places", 403, "denied")
	if IsTransient(err) {
		t.Errorf("403 should not be transient: %v", err)
	}
	if err.Error() != "places: unexpected status 403: denied" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestStatusError_TruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 150) // 300 bytes
	err := StatusError("pagespeed", 400, body)

	msg := err.Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("message is not valid UTF-8: %q", msg)
	}
	kept := strings.TrimPrefix(msg, "pagespeed: unexpected status 400: ")
	if len(kept) != maxStatusBody {
		t.Errorf("kept %d bytes, want %d", len(kept), maxStatusBody)
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本", 4, "日"},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
