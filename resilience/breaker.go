package resilience

import (
	"sync"
	"time"
)

// BreakerState is the current position of a circuit breaker's state
// machine.
type BreakerState int

const (
	// StateClosed lets calls through while tracking recent outcomes.
	StateClosed BreakerState = iota
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen
	// StateHalfOpen lets exactly one probe call through.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a single endpoint's circuit breaker.
type BreakerConfig struct {
	// WindowSize is the number of recent outcomes tracked in Closed.
	WindowSize int
	// FailureThreshold is the failure ratio over a full window that
	// trips the breaker, in (0, 1].
	FailureThreshold float64
	// Cooldown is how long the breaker stays Open before permitting a
	// probe call.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker tuning used when the
// executor is constructed without overrides.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:       10,
		FailureThreshold: 0.5,
		Cooldown:         30 * time.Second,
	}
}

// circuitBreaker is a per-endpoint failure isolation state machine:
// Closed -> Open -> HalfOpen -> Closed. It is shared by every
// concurrent caller targeting the endpoint, so all transitions happen
// under the mutex.
type circuitBreaker struct {
	mu sync.Mutex

	cfg      BreakerConfig
	state    BreakerState
	outcomes []bool // ring buffer of recent results, true = failure
	next     int
	filled   int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

func newCircuitBreaker(cfg BreakerConfig, now func() time.Time) *circuitBreaker {
	if now == nil {
		now = time.Now
	}
	return &circuitBreaker{
		cfg:      cfg,
		state:    StateClosed,
		outcomes: make([]bool, cfg.WindowSize),
		now:      now,
	}
}

// allow decides whether a call may proceed. In Open it fails fast
// until the cooldown elapses, then transitions to HalfOpen and admits
// the caller as the single probe. probe reports that the caller holds
// the probe slot and must hand back an outcome via recordSuccess or
// recordFailure, or the breaker stays half-open forever.
func (b *circuitBreaker) allow() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return false, nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probing = true
		return true, nil
	case StateHalfOpen:
		if b.probing {
			return false, ErrCircuitOpen
		}
		b.probing = true
		return true, nil
	}
	return false, nil
}

// recordSuccess notes a successful call. A successful probe closes
// the breaker and resets the outcome window.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.reset()
	case StateClosed:
		b.push(false)
	}
}

// recordFailure notes a transient failure. A failed probe reopens the
// breaker and restarts the cooldown; in Closed the window is
// re-evaluated against the failure threshold.
func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.trip()
	case StateClosed:
		b.push(true)
		if b.filled == b.cfg.WindowSize && b.failureRatio() >= b.cfg.FailureThreshold {
			b.trip()
		}
	}
}

// currentState returns the breaker's state for introspection.
func (b *circuitBreaker) currentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// resetState returns the breaker to Closed with an empty window.
func (b *circuitBreaker) resetState() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// push records one outcome in the ring buffer. Caller holds the lock.
func (b *circuitBreaker) push(failure bool) {
	b.outcomes[b.next] = failure
	b.next = (b.next + 1) % len(b.outcomes)
	if b.filled < len(b.outcomes) {
		b.filled++
	}
}

// failureRatio computes the failure share of tracked outcomes.
// Caller holds the lock.
func (b *circuitBreaker) failureRatio() float64 {
	if b.filled == 0 {
		return 0
	}
	failures := 0
	for i := 0; i < b.filled; i++ {
		if b.outcomes[i] {
			failures++
		}
	}
	return float64(failures) / float64(b.filled)
}

// trip moves the breaker to Open and starts the cooldown.
// Caller holds the lock.
func (b *circuitBreaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.probing = false
	b.clearWindow()
}

// reset closes the breaker with a fresh window. Caller holds the lock.
func (b *circuitBreaker) reset() {
	b.state = StateClosed
	b.probing = false
	b.clearWindow()
}

func (b *circuitBreaker) clearWindow() {
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	b.next = 0
	b.filled = 0
}
