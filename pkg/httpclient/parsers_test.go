package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseOpenAIHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected RateLimitInfo
	}{
		{
			name:     "empty_headers",
			headers:  map[string]string{},
			expected: RateLimitInfo{},
		},
		{
			name: "retry_after_seconds",
			headers: map[string]string{
				"Retry-After": "30",
			},
			expected: RateLimitInfo{
				RetryAfter: 30 * time.Second,
			},
		},
		{
			name: "retry_after_invalid",
			headers: map[string]string{
				"Retry-After": "invalid",
			},
			expected: RateLimitInfo{},
		},
		{
			name: "token_reset_time",
			headers: map[string]string{
				"x-ratelimit-reset-tokens": "1640995200",
			},
			expected: RateLimitInfo{
				ResetTime: 1640995200,
			},
		},
		{
			name: "request_reset_time",
			headers: map[string]string{
				"x-ratelimit-reset-requests": "1640995200",
			},
			expected: RateLimitInfo{
				ResetTime: 1640995200,
			},
		},
		{
			name: "token_reset_priority_over_request",
			headers: map[string]string{
				"x-ratelimit-reset-tokens":   "1640995200",
				"x-ratelimit-reset-requests": "1640995300",
			},
			expected: RateLimitInfo{
				ResetTime: 1640995200,
			},
		},
		{
			name: "reset_time_invalid",
			headers: map[string]string{
				"x-ratelimit-reset-tokens": "invalid",
			},
			expected: RateLimitInfo{},
		},
		{
			name: "remaining_requests",
			headers: map[string]string{
				"x-ratelimit-remaining-requests": "100",
			},
			expected: RateLimitInfo{
				RequestsRemaining: 100,
			},
		},
		{
			name: "remaining_tokens",
			headers: map[string]string{
				"x-ratelimit-remaining-tokens": "50000",
			},
			expected: RateLimitInfo{
				TokensRemaining: 50000,
			},
		},
		{
			name: "remaining_requests_invalid",
			headers: map[string]string{
				"x-ratelimit-remaining-requests": "invalid",
			},
			expected: RateLimitInfo{},
		},
		{
			name: "remaining_tokens_invalid",
			headers: map[string]string{
				"x-ratelimit-remaining-tokens": "invalid",
			},
			expected: RateLimitInfo{},
		},
		{
			name: "complete_openai_headers",
			headers: map[string]string{
				"Retry-After":                    "60",
				"x-ratelimit-reset-tokens":       "1640995200",
				"x-ratelimit-remaining-requests": "50",
				"x-ratelimit-remaining-tokens":   "25000",
			},
			expected: RateLimitInfo{
				RetryAfter:        60 * time.Second,
				ResetTime:         1640995200,
				RequestsRemaining: 50,
				TokensRemaining:   25000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for key, value := range tt.headers {
				headers.Set(key, value)
			}

			result := ParseOpenAIHeaders(headers)

			if result.RetryAfter != tt.expected.RetryAfter {
				t.Errorf("ParseOpenAIHeaders() RetryAfter = %v, want %v", result.RetryAfter, tt.expected.RetryAfter)
			}
			if result.ResetTime != tt.expected.ResetTime {
				t.Errorf("ParseOpenAIHeaders() ResetTime = %d, want %d", result.ResetTime, tt.expected.ResetTime)
			}
			if result.RequestsRemaining != tt.expected.RequestsRemaining {
				t.Errorf("ParseOpenAIHeaders() RequestsRemaining = %d, want %d", result.RequestsRemaining, tt.expected.RequestsRemaining)
			}
			if result.TokensRemaining != tt.expected.TokensRemaining {
				t.Errorf("ParseOpenAIHeaders() TokensRemaining = %d, want %d", result.TokensRemaining, tt.expected.TokensRemaining)
			}
		})
	}
}

func TestParseOpenAIHeaders_CaseInsensitiveAndMultiValue(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{
			name: "case_insensitive_headers",
			headers: map[string]string{
				"retry-after":                    "30",
				"X-RATELIMIT-RESET-TOKENS":       "1640995200",
				"x-ratelimit-remaining-requests": "100",
			},
		},
		{
			name: "multiple_values",
			headers: map[string]string{
				"Retry-After": "30, 60",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for key, value := range tt.headers {
				headers.Set(key, value)
			}

			result := ParseOpenAIHeaders(headers)

			if result.RetryAfter < 0 {
				t.Errorf("ParseOpenAIHeaders should not return negative RetryAfter: %v", result.RetryAfter)
			}
			if result.ResetTime < 0 {
				t.Errorf("ParseOpenAIHeaders should not return negative ResetTime: %d", result.ResetTime)
			}
			if result.RequestsRemaining < 0 {
				t.Errorf("ParseOpenAIHeaders should not return negative RequestsRemaining: %d", result.RequestsRemaining)
			}
		})
	}
}

func TestParseOpenAIHeaders_RateLimited429(t *testing.T) {
	headers := http.Header{}
	for key, value := range map[string]string{
		"Retry-After":                    "60",
		"x-ratelimit-reset-tokens":       "1640995200",
		"x-ratelimit-remaining-requests": "0",
		"x-ratelimit-remaining-tokens":   "0",
	} {
		headers.Set(key, value)
	}

	info := ParseOpenAIHeaders(headers)
	if info.RetryAfter != 60*time.Second {
		t.Errorf("Expected RetryAfter=60s, got %v", info.RetryAfter)
	}
	if info.ResetTime != 1640995200 {
		t.Errorf("Expected ResetTime=1640995200, got %d", info.ResetTime)
	}
	if info.RequestsRemaining != 0 {
		t.Errorf("Expected RequestsRemaining=0, got %d", info.RequestsRemaining)
	}
	if info.TokensRemaining != 0 {
		t.Errorf("Expected TokensRemaining=0, got %d", info.TokensRemaining)
	}
}
