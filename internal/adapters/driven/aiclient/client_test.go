package aiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"server error", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, true},
		{"bad request", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"raw server error", &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable}, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestClient_Do(t *testing.T) {
	c := New(Config{MaxRetries: 2, Backoff: time.Millisecond})

	t.Run("retries transient errors", func(t *testing.T) {
		attempts := 0
		err := c.Do(context.Background(), "test", func(context.Context) error {
			attempts++
			if attempts < 3 {
				return &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		attempts := 0
		permanent := &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
		err := c.Do(context.Background(), "test", func(context.Context) error {
			attempts++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, "bad key", Describe(err))
	})

	t.Run("returns the last error when retries run out", func(t *testing.T) {
		attempts := 0
		err := c.Do(context.Background(), "test", func(context.Context) error {
			attempts++
			return &openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "down"}
		})
		var apiErr *openai.APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 3, attempts)
	})
}

func TestClient_RateLimit(t *testing.T) {
	c := New(Config{RequestsPerSecond: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	call := func(context.Context) error { calls++; return nil }

	assert.NoError(t, c.Do(ctx, "test", call))
	err := c.Do(ctx, "test", call)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
