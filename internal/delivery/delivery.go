// Package delivery sends user messages to the chat backend with
// authentication, timeout and retry policy.
package delivery

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means no delivery endpoint was configured.
	ErrNotConfigured = errors.New("delivery endpoint not configured")

	// ErrRequestTimeout means the backend did not respond within the deadline.
	ErrRequestTimeout = errors.New("request timeout")
)

// ClientError is a terminal 4xx response. It is never retried.
type ClientError struct {
	Status int
	Body   string
}

func (e *ClientError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client error (%d)", e.Status)
	}
	return fmt.Sprintf("client error (%d): %s", e.Status, e.Body)
}

// ServerError is a 5xx response, eligible for retry.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d)", e.Status)
}

// Sender delivers one user message and returns the backend's reply text.
type Sender interface {
	Send(ctx context.Context, conversationID, content string) (string, error)
}
