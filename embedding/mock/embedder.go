package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/resilience"
)

// ProviderName is the registry name of this variant.
const ProviderName = "mock"

func init() {
	embedding.Register(ProviderName, func(cfg *embedding.Config) (embedding.Provider, error) {
		dim := 384
		maxBatch := 16
		if cfg != nil {
			if cfg.Dimension > 0 {
				dim = cfg.Dimension
			}
			if cfg.MaxBatchSize > 0 {
				maxBatch = cfg.MaxBatchSize
			}
		}
		return NewEmbedder(dim, maxBatch), nil
	})
}

// Embedder is a test double for embedding.Provider. The same text
// always maps to the same unit vector, so similarity search over mock
// embeddings behaves deterministically. Custom behavior can be
// injected via the function fields.
type Embedder struct {
	// EmbedBatchFunc is called by EmbedBatch if set.
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQueryFunc is called by EmbedQuery if set.
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)

	dim      int
	maxBatch int

	mu        sync.Mutex
	callCount int
}

// NewEmbedder creates a mock embedder with default deterministic
// behavior. Returns the concrete type to allow test assertions and
// behavior injection.
func NewEmbedder(dim, maxBatch int) *Embedder {
	return &Embedder{dim: dim, maxBatch: maxBatch}
}

// EmbedBatch generates deterministic embeddings for texts in order.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.recordCall()

	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	if len(texts) > m.maxBatch {
		return nil, resilience.Fatal(fmt.Errorf("%w: %d texts, maximum %d",
			core.ErrBatchTooLarge, len(texts), m.maxBatch))
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, m.dim)
	}
	return vectors, nil
}

// EmbedQuery generates a deterministic embedding based on text hash.
func (m *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.recordCall()

	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, text)
	}
	return deterministicVector(text, m.dim), nil
}

// Name returns the provider variant name.
func (m *Embedder) Name() string { return ProviderName }

// Model returns a fixed test model identifier.
func (m *Embedder) Model() string { return "mock-embed-v1" }

// Dimension returns the configured vector dimension.
func (m *Embedder) Dimension() int { return m.dim }

// MaxBatchSize returns the configured batch limit.
func (m *Embedder) MaxBatchSize() int { return m.maxBatch }

// CallCount returns the number of times any embed method was called.
func (m *Embedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *Embedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedBatchFunc = nil
	m.EmbedQueryFunc = nil
}

func (m *Embedder) recordCall() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// deterministicVector creates a unit-length embedding from an FNV
// hash of the text, so identical text always produces an identical
// vector.
func deterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return core.NormalizeVector(vector)
}
