// Package llm wraps a JSON-mode chat completion endpoint behind a single
// stateless ChatJSON call, gated by the shared rate limiter.
//
// Grounded on the pkg/llms provider shape (config-driven
// constructor over pkg/httpclient), stripped to the one operation this
// pipeline needs: tool-calling, streaming, and reasoning-model handling
// in the original OpenAIProvider serve the A2A agent runtime and have
// no analogue in a two-stage ideation/materialization pipeline.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hsnsaboor/repurpose/pkg/apperr"
	"github.com/hsnsaboor/repurpose/pkg/httpclient"
	"github.com/hsnsaboor/repurpose/pkg/ratelimit"
)

const defaultTimeout = 60 * time.Second

// Config is the stateless configuration for a Client: model id and base
// URL come from configuration, never from caller state.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Client performs JSON-mode chat completions, one call at a time per
// the injected rate limiter.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	limiter *ratelimit.Limiter
}

// New builds a Client. limiter may be shared across many Clients/goroutines
// — the Rate Limiter is process-wide, not per-client.
func New(cfg Config, limiter *ratelimit.Limiter) *Client {
	cfg.SetDefaults()
	return &Client{
		cfg: cfg,
		http: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(1*time.Second),
			httpclient.WithMaxDelay(4*time.Second),
			httpclient.WithRetryStrategy(retryStrategy),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders),
		),
		limiter: limiter,
	}
}

// retryStrategy retries recoverable status codes (429, 5xx) with
// exponential backoff; everything else fails fast. It is consulted only
// for responses: a transport error (no response) is not retried.
func retryStrategy(statusCode int) httpclient.RetryStrategy {
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return httpclient.SmartRetry
	}
	return httpclient.NoRetry
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat responseFmt   `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatJSON sends (system, user) to the configured chat-completion
// endpoint in JSON-object response mode and parses the reply as a JSON
// object. Every call is gated by the rate limiter.
func (c *Client) ChatJSON(ctx context.Context, system, user string) (map[string]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, apperr.Wrap(apperr.KindLLMTimeout, "waiting for rate limiter slot", err)
		}
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFmt{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLLMParseFailed, "marshalling chat request", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindLLMTimeout, "building chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.APIKey))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isRateLimited(err) {
			return nil, apperr.Wrap(apperr.KindLLMRateLimited, "chat completion rate limited", err)
		}
		return nil, apperr.Wrap(apperr.KindLLMTimeout, "chat completion request failed", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindLLMParseFailed, "decoding chat completion envelope", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, apperr.New(apperr.KindLLMParseFailed, "chat completion returned no choices")
	}

	raw := parsed.Choices[0].Message.Content
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, &apperr.Error{
			Kind:    apperr.KindLLMParseFailed,
			Message: fmt.Sprintf("raw response: %s", raw),
			Cause:   err,
		}
	}
	return obj, nil
}

func isRateLimited(err error) bool {
	var re *httpclient.RetryableError
	for e := err; e != nil; {
		if r, ok := e.(*httpclient.RetryableError); ok {
			re = r
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	return re != nil && re.StatusCode == http.StatusTooManyRequests
}
