// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Executor wraps every outbound provider and store call with retry and
// per-endpoint circuit breaking. Breakers are created on first use of
// an endpoint key and shared by all concurrent callers of that key.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	breakerCfg  BreakerConfig
	logger      *slog.Logger

	mu       sync.Mutex
	breakers map[string]*circuitBreaker

	now    func() time.Time
	jitter func() float64 // uniform in [0, 1)
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts sets the attempt budget per call, including the
// first attempt. Default is 4.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) { e.maxAttempts = n }
}

// WithBaseDelay sets the first backoff delay. Default is 200ms.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) { e.baseDelay = d }
}

// WithMaxDelay caps the backoff delay. Default is 5s.
func WithMaxDelay(d time.Duration) Option {
	return func(e *Executor) { e.maxDelay = d }
}

// WithBreakerConfig overrides the circuit breaker tuning applied to
// every endpoint key.
func WithBreakerConfig(cfg BreakerConfig) Option {
	return func(e *Executor) { e.breakerCfg = cfg }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewExecutor creates an executor with the default retry and breaker
// configuration, then applies the provided options.
func NewExecutor(opts ...Option) (*Executor, error) {
	e := &Executor{
		maxAttempts: 4,
		baseDelay:   200 * time.Millisecond,
		maxDelay:    5 * time.Second,
		breakerCfg:  DefaultBreakerConfig(),
		logger:      slog.Default(),
		breakers:    make(map[string]*circuitBreaker),
		now:         time.Now,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if e.breakerCfg.FailureThreshold <= 0 || e.breakerCfg.FailureThreshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if e.breakerCfg.WindowSize < 1 {
		e.breakerCfg.WindowSize = 1
	}
	if e.maxDelay < e.baseDelay {
		e.maxDelay = e.baseDelay
	}
	e.logger = e.logger.With("component", "resilience")
	return e, nil
}

// Call runs op under the endpoint's circuit breaker, retrying
// transient failures with capped exponential backoff and jitter.
// Permanent failures return immediately; exhausted retries surface the
// last error. The context deadline bounds the whole call including
// backoff sleeps.
func (e *Executor) Call(ctx context.Context, endpointKey string, op func(ctx context.Context) error) error {
	breaker := e.breaker(endpointKey)

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", endpointKey, ctx.Err())
		default:
		}

		probe, allowErr := breaker.allow()
		if allowErr != nil {
			e.logger.Warn("call rejected by circuit breaker", "endpoint", endpointKey)
			return fmt.Errorf("%s: %w", endpointKey, allowErr)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			breaker.recordSuccess()
			if attempt > 1 {
				e.logger.Debug("call succeeded after retry", "endpoint", endpointKey, "attempt", attempt)
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			// In Closed, permanent errors say nothing about endpoint
			// health and do not count against the window. A probe is
			// different: its slot must be handed back, so any failed
			// probe reopens the breaker and restarts the cooldown.
			if probe {
				breaker.recordFailure()
			}
			e.logger.Debug("permanent error, not retrying", "endpoint", endpointKey, "err", lastErr)
			return lastErr
		}

		breaker.recordFailure()
		e.logger.Debug("transient error, will retry", "endpoint", endpointKey,
			"attempt", attempt, "maxAttempts", e.maxAttempts, "err", lastErr)

		if attempt == e.maxAttempts {
			break
		}

		timer := time.NewTimer(e.backoffDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", endpointKey, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: retries exhausted after %d attempts: %w", endpointKey, e.maxAttempts, lastErr)
}

// BreakerState reports the state of an endpoint's breaker. The second
// return is false if the endpoint has never been called.
func (e *Executor) BreakerState(endpointKey string) (BreakerState, bool) {
	e.mu.Lock()
	breaker, ok := e.breakers[endpointKey]
	e.mu.Unlock()
	if !ok {
		return StateClosed, false
	}
	return breaker.currentState(), true
}

// Reset returns an endpoint's breaker to Closed with a fresh window.
// Unknown endpoint keys are a no-op.
func (e *Executor) Reset(endpointKey string) {
	e.mu.Lock()
	breaker, ok := e.breakers[endpointKey]
	e.mu.Unlock()
	if ok {
		breaker.resetState()
		e.logger.Info("circuit breaker reset", "endpoint", endpointKey)
	}
}

// breaker returns the endpoint's breaker, creating it on first use.
func (e *Executor) breaker(endpointKey string) *circuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	breaker, ok := e.breakers[endpointKey]
	if !ok {
		breaker = newCircuitBreaker(e.breakerCfg, e.now)
		e.breakers[endpointKey] = breaker
	}
	return breaker
}

// backoffDelay computes the sleep before the next attempt:
// baseDelay * 2^(attempt-1), capped at maxDelay, with +/-20% jitter.
func (e *Executor) backoffDelay(attempt int) time.Duration {
	delay := e.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= e.maxDelay {
			delay = e.maxDelay
			break
		}
	}
	jittered := float64(delay) * (0.8 + 0.4*e.jitter())
	return time.Duration(jittered)
}
