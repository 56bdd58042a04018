package llm

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"

	"newsmesh/internal/config"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"503", errors.New("googleapi: Error 503: UNAVAILABLE"), true},
		{"429", errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED"), true},
		{"bad request", errors.New("googleapi: Error 400: invalid argument"), false},
		{"schema", errors.New("unknown field \"scores\""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	if !isRateLimit(errors.New("HTTP 429 Too Many Requests")) {
		t.Error("429 should be detected as rate limit")
	}
	if isRateLimit(errors.New("HTTP 500")) {
		t.Error("500 is not a rate limit")
	}
}

func TestBackoffDelayGrows(t *testing.T) {
	d0 := backoffDelay(0, false)
	d2 := backoffDelay(2, false)
	if d0 < time.Second {
		t.Errorf("first delay %v below base", d0)
	}
	if d2 < 4*time.Second {
		t.Errorf("third delay %v should be at least 4s", d2)
	}
}

func TestBackoffDelayRateLimitedLonger(t *testing.T) {
	if backoffDelay(0, true) < 5*time.Second {
		t.Error("rate-limited backoff should start from a longer base")
	}
}

func TestRetryHintUsesVendorRetryInfo(t *testing.T) {
	err := genai.APIError{
		Code:   429,
		Status: "RESOURCE_EXHAUSTED",
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "RATE_LIMIT_EXCEEDED"},
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "7s"},
		},
	}
	d, ok := retryHint(err)
	if !ok || d != 7*time.Second {
		t.Errorf("retryHint = (%v, %v), want (7s, true)", d, ok)
	}
}

func TestRetryHintAbsent(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain error", errors.New("HTTP 429 Too Many Requests")},
		{"api error without details", genai.APIError{Code: 429}},
		{"unparseable delay", genai.APIError{Code: 429, Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "soon"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := retryHint(tt.err); ok {
				t.Error("expected no retry hint")
			}
		})
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(config.LLM{}); err == nil {
		t.Error("expected error when API key is missing")
	}
}
