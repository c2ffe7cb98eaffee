package delivery

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", ErrRequestTimeout, true},
		{"server error", &ServerError{Status: 503}, true},
		{"network error", &transientError{err: errors.New("connection reset")}, true},
		{"client error", &ClientError{Status: 400}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Fatalf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryWithBackoffStopsOnTerminalError(t *testing.T) {
	calls := 0
	terminal := &ClientError{Status: 400}

	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoffHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := retryWithBackoff(ctx, 3, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return &ServerError{Status: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}
