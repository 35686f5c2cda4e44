package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	base := []Option{
		WithBaseDelay(time.Millisecond),
		WithMaxDelay(4 * time.Millisecond),
	}
	e, err := NewExecutor(append(base, opts...)...)
	require.NoError(t, err)
	e.jitter = func() float64 { return 0.5 } // no jitter in tests
	return e
}

func TestNewExecutor(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e, err := NewExecutor()
		require.NoError(t, err)
		assert.Equal(t, 4, e.maxAttempts)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		_, err := NewExecutor(WithMaxAttempts(0))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		cfg := DefaultBreakerConfig()
		cfg.FailureThreshold = 1.5
		_, err := NewExecutor(WithBreakerConfig(cfg))
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})
}

func TestCallRetriesTransientErrors(t *testing.T) {
	e := newTestExecutor(t)

	calls := 0
	err := e.Call(context.Background(), "embedding:test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("rate limited"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCallDoesNotRetryPermanentErrors(t *testing.T) {
	e := newTestExecutor(t)

	authErr := Fatal(errors.New("invalid api key"))
	calls := 0
	err := e.Call(context.Background(), "embedding:test", func(ctx context.Context) error {
		calls++
		return authErr
	})

	assert.Equal(t, authErr, err)
	assert.Equal(t, 1, calls)
}

func TestCallSurfacesLastErrorWhenExhausted(t *testing.T) {
	e := newTestExecutor(t, WithMaxAttempts(3))

	transient := errors.New("connection reset by peer")
	calls := 0
	err := e.Call(context.Background(), "vectorstore:test", func(ctx context.Context) error {
		calls++
		return transient
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.Contains(t, err.Error(), "retries exhausted")
	assert.Equal(t, 3, calls)
}

func TestCallHonorsContextDeadline(t *testing.T) {
	e := newTestExecutor(t, WithBaseDelay(50*time.Millisecond), WithMaxDelay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	err := e.Call(ctx, "embedding:test", func(ctx context.Context) error {
		calls++
		return Retryable(errors.New("slow upstream"))
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestCallOpensBreakerAfterRepeatedFailures(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 4, FailureThreshold: 0.5, Cooldown: time.Minute}
	e := newTestExecutor(t, WithMaxAttempts(1), WithBreakerConfig(cfg))

	transient := Retryable(errors.New("503 service unavailable"))
	for i := 0; i < 4; i++ {
		err := e.Call(context.Background(), "embedding:flaky", func(ctx context.Context) error {
			return transient
		})
		require.Error(t, err)
	}

	state, tracked := e.BreakerState("embedding:flaky")
	require.True(t, tracked)
	assert.Equal(t, StateOpen, state)

	// The breaker now fails fast without invoking the operation.
	invoked := false
	err := e.Call(context.Background(), "embedding:flaky", func(ctx context.Context) error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked)

	// Other endpoints are unaffected.
	err = e.Call(context.Background(), "vectorstore:healthy", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestCallProbesAfterCooldown(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 2, FailureThreshold: 0.5, Cooldown: 15 * time.Millisecond}
	e := newTestExecutor(t, WithMaxAttempts(1), WithBreakerConfig(cfg))

	transient := Retryable(errors.New("timeout"))
	for i := 0; i < 2; i++ {
		_ = e.Call(context.Background(), "embedding:recovering", func(ctx context.Context) error {
			return transient
		})
	}
	state, _ := e.BreakerState("embedding:recovering")
	require.Equal(t, StateOpen, state)

	time.Sleep(20 * time.Millisecond)

	// One probe goes through; its success closes the breaker.
	invoked := false
	err := e.Call(context.Background(), "embedding:recovering", func(ctx context.Context) error {
		invoked = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, invoked)

	state, _ = e.BreakerState("embedding:recovering")
	assert.Equal(t, StateClosed, state)
}

func TestCallPermanentErrorDuringRecoveryReopensBreaker(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 2, FailureThreshold: 0.5, Cooldown: 15 * time.Millisecond}
	e := newTestExecutor(t, WithMaxAttempts(1), WithBreakerConfig(cfg))

	transient := Retryable(errors.New("timeout"))
	for i := 0; i < 2; i++ {
		_ = e.Call(context.Background(), "embedding:unauthorized", func(ctx context.Context) error {
			return transient
		})
	}
	state, _ := e.BreakerState("embedding:unauthorized")
	require.Equal(t, StateOpen, state)

	time.Sleep(20 * time.Millisecond)

	// The single half-open call fails permanently. The breaker must
	// reopen and restart the cooldown rather than stay half-open with
	// its slot taken, which would lock the endpoint out forever.
	authErr := Fatal(errors.New("401 unauthorized"))
	err := e.Call(context.Background(), "embedding:unauthorized", func(ctx context.Context) error {
		return authErr
	})
	assert.Equal(t, authErr, err)

	state, _ = e.BreakerState("embedding:unauthorized")
	assert.Equal(t, StateOpen, state)

	// Still inside the restarted cooldown: fail fast.
	err = e.Call(context.Background(), "embedding:unauthorized", func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)

	// After the cooldown the endpoint gets another chance, and a
	// success closes the breaker.
	time.Sleep(20 * time.Millisecond)
	err = e.Call(context.Background(), "embedding:unauthorized", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	state, _ = e.BreakerState("embedding:unauthorized")
	assert.Equal(t, StateClosed, state)
}

func TestReset(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 2, FailureThreshold: 0.5, Cooldown: time.Minute}
	e := newTestExecutor(t, WithMaxAttempts(1), WithBreakerConfig(cfg))

	for i := 0; i < 2; i++ {
		_ = e.Call(context.Background(), "embedding:reset", func(ctx context.Context) error {
			return Retryable(errors.New("504"))
		})
	}
	state, _ := e.BreakerState("embedding:reset")
	require.Equal(t, StateOpen, state)

	e.Reset("embedding:reset")
	state, _ = e.BreakerState("embedding:reset")
	assert.Equal(t, StateClosed, state)

	// Resetting an unknown endpoint is a no-op.
	e.Reset("embedding:never-seen")
}

func TestBackoffDelayNonDecreasingAndCapped(t *testing.T) {
	e, err := NewExecutor(WithBaseDelay(10*time.Millisecond), WithMaxDelay(80*time.Millisecond))
	require.NoError(t, err)
	e.jitter = func() float64 { return 0.5 }

	var prev time.Duration
	for attempt := 1; attempt <= 8; attempt++ {
		delay := e.backoffDelay(attempt)
		assert.GreaterOrEqual(t, delay, prev, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, 80*time.Millisecond)
		prev = delay
	}
	assert.Equal(t, 80*time.Millisecond, e.backoffDelay(8))
}

func TestBackoffDelayJitterBounds(t *testing.T) {
	e, err := NewExecutor(WithBaseDelay(100*time.Millisecond), WithMaxDelay(time.Second))
	require.NoError(t, err)

	e.jitter = func() float64 { return 0 }
	assert.Equal(t, 80*time.Millisecond, e.backoffDelay(1))

	e.jitter = func() float64 { return 0.9999999 }
	delay := e.backoffDelay(1)
	assert.Greater(t, delay, 119*time.Millisecond)
	assert.LessOrEqual(t, delay, 120*time.Millisecond)
}
