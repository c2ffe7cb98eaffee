package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"

	"github.com/skybridge-ai/chat-client/pkg/logger"
	"github.com/skybridge-ai/chat-client/pkg/metrics"
)

// expirySkew is how close to expiry a cached token may get before
// CurrentToken refreshes it anyway.
const expirySkew = 60 * time.Second

// CognitoAPI is the subset of the Cognito user pool client we depend on.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognito.InitiateAuthInput, optFns ...func(*cognito.Options)) (*cognito.InitiateAuthOutput, error)
	GetUser(ctx context.Context, params *cognito.GetUserInput, optFns ...func(*cognito.Options)) (*cognito.GetUserOutput, error)
	GlobalSignOut(ctx context.Context, params *cognito.GlobalSignOutInput, optFns ...func(*cognito.Options)) (*cognito.GlobalSignOutOutput, error)
}

// CognitoProvider is a Provider backed by a Cognito user pool session.
// The refresh token is the session anchor; ID tokens are cached in memory
// until close to expiry.
type CognitoProvider struct {
	api          CognitoAPI
	clientID     string
	refreshToken string
	logger       *logger.Logger

	mu          sync.Mutex
	idToken     string
	accessToken string
	expiresAt   time.Time
}

// NewCognitoProvider creates a provider for one user pool client session.
func NewCognitoProvider(api CognitoAPI, clientID, refreshToken string, log *logger.Logger) *CognitoProvider {
	return &CognitoProvider{
		api:          api,
		clientID:     clientID,
		refreshToken: refreshToken,
		logger:       log,
	}
}

// CurrentToken returns the cached ID token, refreshing when missing or stale.
func (p *CognitoProvider) CurrentToken(ctx context.Context) (string, error) {
	if p.refreshToken == "" {
		return "", ErrTokenUnavailable
	}

	p.mu.Lock()
	token, expiresAt := p.idToken, p.expiresAt
	p.mu.Unlock()

	if token != "" && time.Until(expiresAt) > expirySkew {
		return token, nil
	}

	token, err := p.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	return token, nil
}

// ForceRefresh renews the session unconditionally.
func (p *CognitoProvider) ForceRefresh(ctx context.Context) (string, error) {
	if p.refreshToken == "" {
		return "", ErrTokenRefreshFailed
	}

	token, err := p.refresh(ctx)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err)
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	return token, nil
}

// IsAuthenticated reports whether the session currently holds a usable token.
func (p *CognitoProvider) IsAuthenticated(ctx context.Context) bool {
	p.mu.Lock()
	token, accessToken, expiresAt := p.idToken, p.accessToken, p.expiresAt
	p.mu.Unlock()

	if token != "" && time.Until(expiresAt) > expirySkew {
		return true
	}

	if accessToken != "" {
		_, err := p.api.GetUser(ctx, &cognito.GetUserInput{AccessToken: aws.String(accessToken)})
		if err == nil {
			return true
		}
	}

	_, err := p.CurrentToken(ctx)
	return err == nil
}

// SignOut revokes the session. The local cache is cleared even on failure.
func (p *CognitoProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	accessToken := p.accessToken
	p.idToken, p.accessToken, p.expiresAt = "", "", time.Time{}
	p.mu.Unlock()

	if accessToken == "" {
		return nil
	}

	if _, err := p.api.GlobalSignOut(ctx, &cognito.GlobalSignOutInput{AccessToken: aws.String(accessToken)}); err != nil {
		return fmt.Errorf("%w: %v", ErrSignOutFailed, err)
	}
	return nil
}

func (p *CognitoProvider) refresh(ctx context.Context) (string, error) {
	out, err := p.api.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": p.refreshToken,
		},
	})
	if err != nil {
		return "", err
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.IdToken == nil {
		return "", fmt.Errorf("no ID token in authentication result")
	}

	idToken := aws.ToString(out.AuthenticationResult.IdToken)
	accessToken := aws.ToString(out.AuthenticationResult.AccessToken)

	p.mu.Lock()
	p.idToken = idToken
	p.accessToken = accessToken
	p.expiresAt = tokenExpiry(idToken)
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Debug("session token refreshed")
	}
	return idToken, nil
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// token is only inspected to schedule the next refresh, never trusted.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now().Add(expirySkew)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(expirySkew)
	}
	return exp.Time
}
