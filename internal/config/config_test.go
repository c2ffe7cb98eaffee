package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CHAT_HISTORY_TABLE", "CONVERSATIONS_TABLE", "REQUEST_TIMEOUT",
		"DELIVERY_MAX_ATTEMPTS", "DELIVERY_RETRY_BASE", "USE_MOCK_DATA", "BYPASS_AUTH",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ChatHistoryTable != "ChatHistory" || cfg.ConversationsTable != "Conversations" {
		t.Fatalf("unexpected table defaults: %q, %q", cfg.ChatHistoryTable, cfg.ConversationsTable)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected 30s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.MaxAttempts != 3 || cfg.RetryBaseDelay != time.Second {
		t.Fatalf("unexpected retry defaults: %d, %s", cfg.MaxAttempts, cfg.RetryBaseDelay)
	}
	if cfg.UseMockData || cfg.BypassAuth {
		t.Fatal("mode switches must default off")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CHAT_API_ENDPOINT", "https://api.example.com/chat")
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "5")
	t.Setenv("DELIVERY_RETRY_BASE", "250ms")
	t.Setenv("USE_MOCK_DATA", "true")

	cfg := Load()
	if cfg.APIEndpoint != "https://api.example.com/chat" {
		t.Fatalf("endpoint not read: %q", cfg.APIEndpoint)
	}
	if cfg.MaxAttempts != 5 || cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Fatalf("retry settings not read: %d, %s", cfg.MaxAttempts, cfg.RetryBaseDelay)
	}
	if !cfg.UseMockData {
		t.Fatal("mock mode not read")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DELIVERY_MAX_ATTEMPTS", "lots")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := Load()
	if cfg.MaxAttempts != 3 || cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("malformed values should fall back to defaults: %d, %s", cfg.MaxAttempts, cfg.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr int
	}{
		{"mock mode needs nothing", Config{UseMockData: true}, 0},
		{"production needs endpoint and cognito", Config{}, 3},
		{"bypass auth skips cognito", Config{APIEndpoint: "x", BypassAuth: true}, 0},
		{"bypass login skips cognito", Config{APIEndpoint: "x", BypassLogin: true}, 0},
		{
			"full production config",
			Config{APIEndpoint: "x", CognitoUserPoolID: "pool", CognitoClientID: "client"},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Validate(); len(got) != tt.wantErr {
				t.Fatalf("expected %d problems, got %v", tt.wantErr, got)
			}
		})
	}
}
