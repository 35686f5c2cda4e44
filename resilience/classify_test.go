package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit retryable", Retryable(errors.New("boom")), true},
		{"explicit fatal", Fatal(errors.New("429 too many requests")), false},
		{"wrapped classification", fmt.Errorf("embed: %w", Retryable(errors.New("boom"))), true},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"net timeout", timeoutErr{}, true},
		{"rate limit text", errors.New("HTTP 429 Too Many Requests"), true},
		{"bad gateway text", errors.New("502 Bad Gateway"), true},
		{"connection reset text", errors.New("read tcp: connection reset by peer"), true},
		{"auth failure", errors.New("401 unauthorized"), false},
		{"malformed request", errors.New("invalid request body"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestClassificationWrappers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, Retryable(nil))
		assert.NoError(t, Fatal(nil))
	})

	t.Run("unwrap preserves cause", func(t *testing.T) {
		cause := errors.New("boom")
		assert.ErrorIs(t, Retryable(cause), cause)
		assert.ErrorIs(t, Fatal(cause), cause)
	})
}
