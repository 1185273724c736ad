package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"imagebot/internal/core"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// MarshalJSON wraps Sonic for performance
func MarshalJSON(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// GenerateEventID generates a unique refresh event ID
func GenerateEventID() string {
	return uuid.NewString()
}

// CreateJSONRequest creates an outbound HTTP request carrying an optional JSON payload and bearer token
func CreateJSONRequest(ctx context.Context, method, url string, payload any, bearer string) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		payloadBytes, err := MarshalJSON(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	}
	req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
	if bearer != "" {
		req.Header.Set(core.HeaderAuthorization, core.AuthBearerPrefix+bearer)
	}

	return req, nil
}

// TruncateString truncates string and adds replacement text in the middle
func TruncateString(s string, prefixLen, suffixLen int, replacement string) string {
	if len(s) > prefixLen+suffixLen {
		return s[:prefixLen] + replacement + s[len(s)-suffixLen:]
	}
	return s
}

// ParseEnvList parses comma-separated env var to trimmed slice
func ParseEnvList(envVar string) []string {
	if envVar == "" {
		return nil
	}
	parts := strings.Split(envVar, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetEnvWithDefault gets env var with default value
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDurationEnv parses a duration env var, returning defaultValue when unset.
// A malformed value is reported through ok=false together with the default.
func GetDurationEnv(key string, defaultValue time.Duration) (value time.Duration, ok bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, true
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue, false
	}
	return parsed, true
}
