// Package aiclient configures OpenAI-compatible API clients and the retry
// and rate limit policy shared by the embedding and LLM adapters.
//
// Ollama serves the same API under /v1, so one client covers both
// providers.
package aiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/studymate/internal/logger"
)

// Default configuration values.
const (
	DefaultTimeout = 60 * time.Second
	DefaultBackoff = 500 * time.Millisecond
)

// Config holds connection and policy settings.
type Config struct {
	// APIKey is sent as a bearer token. Local servers accept any value.
	APIKey string

	// BaseURL is the API root including the version, e.g. http://localhost:11434/v1.
	BaseURL string

	// Timeout bounds a single HTTP request (default: 60s).
	Timeout time.Duration

	// RequestsPerSecond limits the request rate. Zero means unlimited.
	RequestsPerSecond float64

	// MaxRetries is the number of retries after a transient failure.
	MaxRetries int

	// Backoff is the first retry delay; later delays double (default: 500ms).
	Backoff time.Duration
}

// Client wraps an OpenAI API client with rate limiting and retries.
type Client struct {
	api        *openai.Client
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
}

// New creates a client from cfg.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		limiter:    limiter,
		maxRetries: uint64(max(0, cfg.MaxRetries)),
		backoff:    cfg.Backoff,
	}
}

// API returns the underlying API client.
func (c *Client) API() *openai.Client {
	return c.api
}

// Do runs call under the rate limit, retrying transient failures with
// exponential backoff. The last error is returned once retries run out.
func (c *Client) Do(ctx context.Context, op string, call func(context.Context) error) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call(ctx)
		if err != nil && Retryable(err) {
			logger.Debug("%s attempt %d failed, retrying: %v", op, attempt, err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// Retryable reports whether err is worth another attempt: rate limiting,
// server errors and network failures are; cancellation and client
// errors are not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Describe renders an API error compactly for wrapping.
func Describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && len(reqErr.Body) > 0 {
		return string(reqErr.Body)
	}
	return err.Error()
}
