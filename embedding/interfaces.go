package embedding

import "context"

// Provider generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Provider interface {
	// EmbedBatch generates one embedding per input text, in input
	// order, with result length equal to input length. Batches larger
	// than MaxBatchSize fail fast with core.ErrBatchTooLarge; the
	// caller is responsible for splitting.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider variant (e.g. "openai"). It forms
	// the resilience endpoint key "embedding:<name>".
	Name() string

	// Model identifies the embedding model. Vectors from different
	// models are never mixed in one collection.
	Model() string

	// Dimension is the fixed length of every vector this provider
	// produces.
	Dimension() int

	// MaxBatchSize is the largest batch EmbedBatch accepts.
	MaxBatchSize() int
}
