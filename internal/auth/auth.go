// Package auth wraps the external identity session behind a credential provider.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrTokenUnavailable means no active session can supply a token.
	ErrTokenUnavailable = errors.New("auth: no authentication token available")

	// ErrTokenRefreshFailed means the underlying session could not be renewed.
	ErrTokenRefreshFailed = errors.New("auth: failed to refresh authentication token")

	// ErrSignOutFailed means the remote sign-out did not complete; the local
	// session must still be treated as ended.
	ErrSignOutFailed = errors.New("auth: failed to sign out")
)

// Provider supplies bearer credentials from an external identity session.
// It does not persist tokens itself.
type Provider interface {
	// CurrentToken returns a usable bearer token, refreshing transparently
	// if the cached one is stale.
	CurrentToken(ctx context.Context) (string, error)

	// ForceRefresh renews the session and returns the fresh token.
	ForceRefresh(ctx context.Context) (string, error)

	// IsAuthenticated probes session validity. It never errors; any failure
	// reads as false.
	IsAuthenticated(ctx context.Context) bool

	// SignOut ends the session, best effort.
	SignOut(ctx context.Context) error
}
