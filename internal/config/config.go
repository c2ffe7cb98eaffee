// Package config provides environment configuration for the chat client.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the client.
type Config struct {
	// Delivery endpoint
	APIEndpoint string

	// Remote store
	AWSRegion          string
	ChatHistoryTable   string
	ConversationsTable string

	// Identity session (Cognito user pool)
	CognitoUserPoolID   string
	CognitoClientID     string
	CognitoRegion       string
	CognitoRefreshToken string

	// Local persistence mode
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mode switches
	UseMockData   bool
	UseLocalStore bool
	BypassAuth    bool
	BypassLogin   bool

	// Delivery policy
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		APIEndpoint: getEnv("CHAT_API_ENDPOINT", ""),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		ChatHistoryTable:   getEnv("CHAT_HISTORY_TABLE", "ChatHistory"),
		ConversationsTable: getEnv("CONVERSATIONS_TABLE", "Conversations"),

		CognitoUserPoolID:   getEnv("COGNITO_USER_POOL_ID", ""),
		CognitoClientID:     getEnv("COGNITO_CLIENT_ID", ""),
		CognitoRegion:       getEnv("COGNITO_REGION", "us-east-1"),
		CognitoRefreshToken: getEnv("COGNITO_REFRESH_TOKEN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		UseMockData:   getBoolEnv("USE_MOCK_DATA", false),
		UseLocalStore: getBoolEnv("USE_LOCAL_STORE", false),
		BypassAuth:    getBoolEnv("BYPASS_AUTH", false),
		BypassLogin:   getBoolEnv("BYPASS_LOGIN", false),

		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
		MaxAttempts:    getIntEnv("DELIVERY_MAX_ATTEMPTS", 3),
		RetryBaseDelay: getDurationEnv("DELIVERY_RETRY_BASE", time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate reports missing settings required for production operation.
// Mode switches relax the requirements: mock-data mode needs nothing,
// bypass-auth needs no Cognito settings, local-store needs no tables.
func (c *Config) Validate() []string {
	var errs []string

	if c.UseMockData {
		return nil
	}

	if c.APIEndpoint == "" {
		errs = append(errs, "CHAT_API_ENDPOINT is required")
	}

	if !c.BypassAuth && !c.BypassLogin {
		if c.CognitoUserPoolID == "" {
			errs = append(errs, "COGNITO_USER_POOL_ID is required")
		}
		if c.CognitoClientID == "" {
			errs = append(errs, "COGNITO_CLIENT_ID is required")
		}
	}

	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
