package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTripsOnFailureRatio(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 4, FailureThreshold: 0.5, Cooldown: time.Minute}
	b := newCircuitBreaker(cfg, nil)

	// Two failures and two successes fill the window at exactly the
	// threshold. The ratio is evaluated on failures, so the window is
	// filled with a failure last.
	b.recordSuccess()
	b.recordFailure()
	b.recordSuccess()
	require.Equal(t, StateClosed, b.currentState())
	b.recordFailure()

	assert.Equal(t, StateOpen, b.currentState())
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	cfg := BreakerConfig{WindowSize: 4, FailureThreshold: 0.5, Cooldown: time.Minute}
	b := newCircuitBreaker(cfg, nil)

	b.recordFailure()
	b.recordSuccess()
	b.recordSuccess()
	b.recordSuccess()

	assert.Equal(t, StateClosed, b.currentState())
	probe, err := b.allow()
	assert.NoError(t, err)
	assert.False(t, probe)
}

func TestBreakerHalfOpenAdmitsSingleProbe(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cfg := BreakerConfig{WindowSize: 2, FailureThreshold: 0.5, Cooldown: 10 * time.Second}
	b := newCircuitBreaker(cfg, clock)

	b.recordFailure()
	b.recordFailure()
	require.Equal(t, StateOpen, b.currentState())
	_, err := b.allow()
	assert.ErrorIs(t, err, ErrCircuitOpen)

	// Advance past the cooldown: exactly one probe is admitted.
	now = now.Add(11 * time.Second)
	probe, err := b.allow()
	assert.NoError(t, err)
	assert.True(t, probe)
	assert.Equal(t, StateHalfOpen, b.currentState())
	_, err = b.allow()
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerProbeOutcomes(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cfg := BreakerConfig{WindowSize: 2, FailureThreshold: 0.5, Cooldown: 10 * time.Second}

	t.Run("probe success closes", func(t *testing.T) {
		b := newCircuitBreaker(cfg, clock)
		b.recordFailure()
		b.recordFailure()
		now = now.Add(11 * time.Second)
		probe, err := b.allow()
		require.NoError(t, err)
		require.True(t, probe)

		b.recordSuccess()
		assert.Equal(t, StateClosed, b.currentState())
		probe, err = b.allow()
		assert.NoError(t, err)
		assert.False(t, probe)
	})

	t.Run("probe failure reopens and restarts cooldown", func(t *testing.T) {
		b := newCircuitBreaker(cfg, clock)
		b.recordFailure()
		b.recordFailure()
		now = now.Add(11 * time.Second)
		probe, err := b.allow()
		require.NoError(t, err)
		require.True(t, probe)

		b.recordFailure()
		assert.Equal(t, StateOpen, b.currentState())
		_, err = b.allow()
		assert.ErrorIs(t, err, ErrCircuitOpen)

		// Cooldown restarted from the probe failure.
		now = now.Add(5 * time.Second)
		_, err = b.allow()
		assert.ErrorIs(t, err, ErrCircuitOpen)
		now = now.Add(6 * time.Second)
		_, err = b.allow()
		assert.NoError(t, err)
	})

	t.Run("released probe slot admits the next probe", func(t *testing.T) {
		b := newCircuitBreaker(cfg, clock)
		b.recordFailure()
		b.recordFailure()
		now = now.Add(11 * time.Second)
		probe, err := b.allow()
		require.NoError(t, err)
		require.True(t, probe)

		// The probe hands its slot back by reopening the breaker.
		// After another cooldown a fresh probe must be admitted.
		b.recordFailure()
		now = now.Add(11 * time.Second)
		probe, err = b.allow()
		assert.NoError(t, err)
		assert.True(t, probe)
	})
}
