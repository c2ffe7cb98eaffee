package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skybridge-ai/chat-client/internal/auth"
	"github.com/skybridge-ai/chat-client/pkg/logger"
)

type fakeProvider struct {
	token      string
	refreshes  int32
	refreshErr error
}

func (p *fakeProvider) CurrentToken(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", auth.ErrTokenUnavailable
	}
	return p.token, nil
}

func (p *fakeProvider) ForceRefresh(ctx context.Context) (string, error) {
	atomic.AddInt32(&p.refreshes, 1)
	if p.refreshErr != nil {
		return "", p.refreshErr
	}
	p.token = p.token + "-refreshed"
	return p.token, nil
}

func (p *fakeProvider) IsAuthenticated(ctx context.Context) bool { return p.token != "" }
func (p *fakeProvider) SignOut(ctx context.Context) error        { p.token = ""; return nil }

func newTestClient(endpoint string, creds auth.Provider, opts ...Option) *Client {
	base := []Option{WithRetryPolicy(3, 10*time.Millisecond)}
	return NewClient(endpoint, creds, logger.NewNop(), append(base, opts...)...)
}

func TestSendRetriesServerErrorsWithBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeProvider{token: "tok"}, WithRetryPolicy(3, 20*time.Millisecond))

	start := time.Now()
	reply, err := c.Send(context.Background(), "conv_1", "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("expected ok, got %q", reply)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	// Two backoff sleeps: base and doubled base.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("expected at least 60ms of backoff, got %s", elapsed)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "no such route", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeProvider{token: "tok"})

	_, err := c.Send(context.Background(), "conv_1", "hello")
	if err == nil {
		t.Fatal("expected failure")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Status != http.StatusNotFound {
		t.Fatalf("expected 404 client error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
}

func TestSendExhaustsRetriesOnPersistentServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeProvider{token: "tok"})

	_, err := c.Send(context.Background(), "conv_1", "hello")
	var se *ServerError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 server error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSendRefreshesCredentialOnceOn401(t *testing.T) {
	provider := &fakeProvider{token: "stale"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stale-refreshed" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"response":"fresh"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, provider)

	reply, err := c.Send(context.Background(), "conv_1", "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "fresh" {
		t.Fatalf("expected fresh, got %q", reply)
	}
	if got := atomic.LoadInt32(&provider.refreshes); got != 1 {
		t.Fatalf("expected exactly one forced refresh, got %d", got)
	}
}

func TestSendFailsOnSecond401WithoutAnotherRefresh(t *testing.T) {
	provider := &fakeProvider{token: "stale"}
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, provider)

	_, err := c.Send(context.Background(), "conv_1", "hello")
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Status != http.StatusUnauthorized {
		t.Fatalf("expected terminal 401, got %v", err)
	}
	if got := atomic.LoadInt32(&provider.refreshes); got != 1 {
		t.Fatalf("expected one refresh, got %d", got)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected two requests (original + replay), got %d", got)
	}
}

func TestSendTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeProvider{token: "tok"},
		WithTimeout(30*time.Millisecond),
		WithRetryPolicy(1, time.Millisecond))

	_, err := c.Send(context.Background(), "conv_1", "hello")
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected request timeout, got %v", err)
	}
}

func TestSendWithoutEndpointFailsFast(t *testing.T) {
	c := newTestClient("", &fakeProvider{token: "tok"})
	if _, err := c.Send(context.Background(), "conv_1", "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendBypassAuthOmitsAuthorizationHeader(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeProvider{}, WithBypassAuth())

	if _, err := c.Send(context.Background(), "conv_1", "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("Authorization header attached in bypass-auth mode")
	}
}

func TestSendFailsWhenTokenUnavailable(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", &fakeProvider{})
	if _, err := c.Send(context.Background(), "conv_1", "hello"); !errors.Is(err, auth.ErrTokenUnavailable) {
		t.Fatalf("expected token unavailable, got %v", err)
	}
}

func TestParseReplyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"response field", `{"response":"a"}`, "a"},
		{"message fallback", `{"message":"b"}`, "b"},
		{"raw fallback", `{"other":1}`, `{"other":1}`},
		{"not json", `plain text`, "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseReply([]byte(tt.body)); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
