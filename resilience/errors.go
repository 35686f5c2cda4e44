package resilience

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when the configured attempt
	// budget is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")

	// ErrInvalidThreshold is returned when the breaker failure
	// threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("failure threshold must be in (0, 1]")

	// ErrCircuitOpen is returned without invoking the operation when
	// the endpoint's circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit open")
)
