package vectorstore

import (
	"context"

	"github.com/poiesic/corpus/core"
)

// Metric identifies the similarity measure a store uses. Scores are
// only comparable within a single metric.
type Metric string

const (
	// MetricCosine scores by cosine similarity, higher is closer.
	MetricCosine Metric = "cosine"
	// MetricDotProduct scores by inner product, higher is closer.
	MetricDotProduct Metric = "dot"
	// MetricEuclidean scores by L2 distance, lower is closer.
	MetricEuclidean Metric = "euclidean"
)

// Store persists and searches vector records for one collection.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// EnsureCollection creates the collection with the given vector
	// dimension if it does not exist. If the collection exists with a
	// different dimension, returns core.ErrDimensionMismatch.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes records, overwriting any existing record with the
	// same ID. Records whose vector dimension does not match the
	// collection fail fast with core.ErrDimensionMismatch.
	Upsert(ctx context.Context, records []core.VectorRecord) error

	// Search returns up to topK hits ordered by score, best first
	// under the store's metric. Filters restrict hits to payloads
	// matching every predicate; an unsupported predicate returns
	// core.ErrUnsupportedFilter.
	Search(ctx context.Context, vector []float32, topK int, filters []Filter) ([]core.SearchHit, error)

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of records in the collection.
	Count(ctx context.Context) (int, error)

	// Name identifies the store variant (e.g. "badger"). It forms the
	// resilience endpoint key "vectorstore:<name>".
	Name() string

	// Metric reports the similarity measure used by Search.
	Metric() Metric

	// Close releases resources held by the store.
	Close() error
}

// FilterDeleter is an optional capability for removing every record
// whose payload matches a set of filters, e.g. all chunks of one
// document. Callers discover it by type assertion.
type FilterDeleter interface {
	// DeleteByFilter removes matching records and reports how many
	// were deleted. An empty filter set is rejected rather than
	// interpreted as delete-everything.
	DeleteByFilter(ctx context.Context, filters []Filter) (int, error)
}
