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
	"errors"
	"net"
	"strings"
	"syscall"
)

// classifiedError carries an explicit retryability decision made by
// the component that produced the error. It takes precedence over the
// heuristics in IsRetryable.
type classifiedError struct {
	err       error
	retryable bool
}

func (e *classifiedError) Error() string { return e.err.Error() }

func (e *classifiedError) Unwrap() error { return e.err }

// Retryable marks an error as transient: the executor will retry it
// and count it against the endpoint's circuit breaker. Returns nil for
// a nil error.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, retryable: true}
}

// Fatal marks an error as permanent: the executor surfaces it
// immediately without retrying. Returns nil for a nil error.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, retryable: false}
}

// retryableFragments are matched against provider error strings when
// no structured signal is available. SDK errors for rate limits and
// upstream outages frequently only carry the HTTP status in the text.
var retryableFragments = []string{
	"429",
	"too many requests",
	"rate limit",
	"502",
	"503",
	"504",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"connection reset",
	"timeout",
	"timed out",
	"temporarily unavailable",
}

// IsRetryable reports whether an error should be retried. Explicit
// classification wins; otherwise network timeouts, connection resets
// and rate-limit/5xx-shaped errors are transient and everything else
// (auth, malformed requests, dimension mismatches) is permanent.
// Context cancellation and deadline expiry are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.retryable
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
