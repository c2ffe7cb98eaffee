package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/skybridge-ai/chat-client/pkg/metrics"
)

// transientError marks a network-level failure as eligible for retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// isRetryable reports whether a failure is worth another attempt: network
// errors, timeouts and 5xx responses. Everything else is terminal.
func isRetryable(err error) bool {
	if errors.Is(err, ErrRequestTimeout) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return true
	}
	var te *transientError
	return errors.As(err, &te)
}

// retryWithBackoff runs fn up to maxAttempts times, sleeping base, 2*base,
// 4*base... between attempts. Terminal failures abort immediately.
func retryWithBackoff(ctx context.Context, maxAttempts int, base time.Duration, fn func(context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := base
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.DeliveryRetriesTotal.Inc()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return lastErr
}
