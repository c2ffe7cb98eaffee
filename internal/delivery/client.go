package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skybridge-ai/chat-client/internal/auth"
	"github.com/skybridge-ai/chat-client/pkg/logger"
	"github.com/skybridge-ai/chat-client/pkg/metrics"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = time.Second
)

// Client delivers messages over HTTP POST with bearer authentication,
// a per-attempt deadline and exponential backoff on transient failures.
type Client struct {
	endpoint    string
	creds       auth.Provider
	bypassAuth  bool
	timeout     time.Duration
	maxAttempts int
	retryBase   time.Duration
	httpClient  *http.Client
	logger      *logger.Logger
	tracer      trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-attempt request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetryPolicy overrides the attempt count and base backoff delay.
func WithRetryPolicy(maxAttempts int, base time.Duration) Option {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.retryBase = base
	}
}

// WithBypassAuth disables token attachment and 401 handling. Local mode only.
func WithBypassAuth() Option {
	return func(c *Client) { c.bypassAuth = true }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a delivery client for one endpoint.
func NewClient(endpoint string, creds auth.Provider, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:    endpoint,
		creds:       creds,
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
		httpClient:  &http.Client{},
		logger:      log,
		tracer:      otel.Tracer("delivery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// Send posts one message and returns the backend's reply text. On 401 the
// credential is force-refreshed exactly once per Send; transient failures are
// retried with exponential backoff.
func (c *Client) Send(ctx context.Context, conversationID, content string) (string, error) {
	if c.endpoint == "" {
		return "", ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "delivery.Send",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	start := time.Now()

	token := ""
	if !c.bypassAuth {
		t, err := c.creds.CurrentToken(ctx)
		if err != nil {
			return "", fmt.Errorf("delivery: %w", err)
		}
		token = t
	}

	refreshed := false
	var reply string
	err := retryWithBackoff(ctx, c.maxAttempts, c.retryBase, func(ctx context.Context) error {
		r, err := c.attempt(ctx, conversationID, content, &token, &refreshed)
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		metrics.RecordDelivery("error", time.Since(start).Seconds())
		span.RecordError(err)
		c.logger.Warn("message delivery failed")
		return "", fmt.Errorf("delivery: %w", err)
	}

	metrics.RecordDelivery("success", time.Since(start).Seconds())
	return reply, nil
}

// attempt issues a single request. A 401 triggers one forced refresh and an
// in-place replay; the second 401 falls through as a terminal client error.
func (c *Client) attempt(ctx context.Context, conversationID, content string, token *string, refreshed *bool) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(sendRequest{ConversationID: conversationID, Message: content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" && !c.bypassAuth {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			metrics.DeliveryAttemptsTotal.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("%w: no response within %s", ErrRequestTimeout, c.timeout)
		}
		metrics.DeliveryAttemptsTotal.WithLabelValues("network_error").Inc()
		return "", &transientError{err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.DeliveryAttemptsTotal.WithLabelValues("network_error").Inc()
		return "", &transientError{err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !c.bypassAuth && !*refreshed:
		*refreshed = true
		t, err := c.creds.ForceRefresh(ctx)
		if err != nil {
			return "", err
		}
		*token = t
		return c.attempt(ctx, conversationID, content, token, refreshed)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		metrics.DeliveryAttemptsTotal.WithLabelValues("client_error").Inc()
		return "", &ClientError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}

	case resp.StatusCode >= 500:
		metrics.DeliveryAttemptsTotal.WithLabelValues("server_error").Inc()
		return "", &ServerError{Status: resp.StatusCode}
	}

	metrics.DeliveryAttemptsTotal.WithLabelValues("success").Inc()
	return parseReply(respBody), nil
}

// parseReply extracts the reply text: the response field, falling back to
// message, falling back to the raw body.
func parseReply(body []byte) string {
	var parsed struct {
		Response string `json:"response"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Response != "" {
			return parsed.Response
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
