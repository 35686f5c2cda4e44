package embedding

import "errors"

var (
	// ErrUnknownProvider is returned when no variant is registered
	// under the requested name.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyResult is returned when a backend responds without an
	// embedding for an input text.
	ErrEmptyResult = errors.New("embedding backend returned no result")
)
