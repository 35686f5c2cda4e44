package chunker

import "errors"

var (
	// ErrInvalidChunkConfig indicates chunking parameters that can
	// never produce valid chunks, such as overlap >= max tokens. This
	// is a configuration error, not a runtime fault.
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")
)
