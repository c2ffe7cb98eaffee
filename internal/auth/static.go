package auth

import "context"

// StaticProvider serves a fixed token, or none at all. It backs the
// bypass-login and bypass-auth modes and is convenient in tests.
type StaticProvider struct {
	Token string

	// AlwaysAuthenticated makes IsAuthenticated report true even without a
	// token (bypass-login mode).
	AlwaysAuthenticated bool
}

func (p *StaticProvider) CurrentToken(ctx context.Context) (string, error) {
	if p.Token == "" {
		return "", ErrTokenUnavailable
	}
	return p.Token, nil
}

func (p *StaticProvider) ForceRefresh(ctx context.Context) (string, error) {
	if p.Token == "" {
		return "", ErrTokenRefreshFailed
	}
	return p.Token, nil
}

func (p *StaticProvider) IsAuthenticated(ctx context.Context) bool {
	return p.AlwaysAuthenticated || p.Token != ""
}

func (p *StaticProvider) SignOut(ctx context.Context) error {
	p.Token = ""
	return nil
}
