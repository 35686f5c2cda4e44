package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemoryStore("test-collection")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureCollection(context.Background(), 3))
	return store
}

func record(id string, vector []float32, payload map[string]string) core.VectorRecord {
	return core.VectorRecord{
		ID:      id,
		Vector:  vector,
		Text:    "text for " + id,
		Payload: payload,
	}
}

func TestEnsureCollection(t *testing.T) {
	t.Run("idempotent with same dimension", func(t *testing.T) {
		store := newTestStore(t)
		assert.NoError(t, store.EnsureCollection(context.Background(), 3))
	})

	t.Run("rejects dimension change", func(t *testing.T) {
		store := newTestStore(t)
		err := store.EnsureCollection(context.Background(), 4)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("operations before creation fail", func(t *testing.T) {
		store, err := NewMemoryStore("untouched")
		require.NoError(t, err)
		defer store.Close()

		_, err = store.Search(context.Background(), []float32{1, 0, 0}, 5, nil)
		assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
	})
}

func TestUpsert(t *testing.T) {
	t.Run("stores records", func(t *testing.T) {
		store := newTestStore(t)
		err := store.Upsert(context.Background(), []core.VectorRecord{
			record("a", []float32{1, 0, 0}, nil),
			record("b", []float32{0, 1, 0}, nil),
		})
		require.NoError(t, err)

		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("same ID overwrites", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, []core.VectorRecord{
			record("a", []float32{1, 0, 0}, map[string]string{"rev": "1"}),
		}))
		require.NoError(t, store.Upsert(ctx, []core.VectorRecord{
			record("a", []float32{1, 0, 0}, map[string]string{"rev": "2"}),
		}))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		hits, err := store.Search(ctx, []float32{1, 0, 0}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "2", hits[0].Payload["rev"])
	})

	t.Run("rejects dimension mismatch", func(t *testing.T) {
		store := newTestStore(t)
		err := store.Upsert(context.Background(), []core.VectorRecord{
			record("a", []float32{1, 0}, nil),
		})
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("rejects invalid record", func(t *testing.T) {
		store := newTestStore(t)
		err := store.Upsert(context.Background(), []core.VectorRecord{
			record("", []float32{1, 0, 0}, nil),
		})
		assert.ErrorIs(t, err, core.ErrEmptyRecordID)
	})
}

func TestSearch(t *testing.T) {
	seed := func(t *testing.T) *Store {
		store := newTestStore(t)
		err := store.Upsert(context.Background(), []core.VectorRecord{
			record("x", []float32{1, 0, 0}, map[string]string{"source": "wiki"}),
			record("y", []float32{0.9, 0.1, 0}, map[string]string{"source": "wiki"}),
			record("z", []float32{0, 0, 1}, map[string]string{"source": "notes"}),
		})
		require.NoError(t, err)
		return store
	}

	t.Run("orders by descending similarity", func(t *testing.T) {
		store := seed(t)
		hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "x", hits[0].ID)
		assert.Equal(t, "y", hits[1].ID)
		assert.Equal(t, "z", hits[2].ID)
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
		}
	})

	t.Run("truncates to topK", func(t *testing.T) {
		store := seed(t)
		hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 2, nil)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("returns fewer when collection is small", func(t *testing.T) {
		store := seed(t)
		hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
		require.NoError(t, err)
		assert.Len(t, hits, 3)
	})

	t.Run("equality filter restricts hits", func(t *testing.T) {
		store := seed(t)
		hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10,
			[]vectorstore.Filter{vectorstore.Eq("source", "notes")})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "z", hits[0].ID)
	})

	t.Run("filter matching nothing yields empty result", func(t *testing.T) {
		store := seed(t)
		hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10,
			[]vectorstore.Filter{vectorstore.Eq("source", "missing")})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("range filter is unsupported", func(t *testing.T) {
		store := seed(t)
		_, err := store.Search(context.Background(), []float32{1, 0, 0}, 10,
			[]vectorstore.Filter{vectorstore.Gte("ordinal", "2")})
		assert.ErrorIs(t, err, core.ErrUnsupportedFilter)
	})

	t.Run("rejects query dimension mismatch", func(t *testing.T) {
		store := seed(t)
		_, err := store.Search(context.Background(), []float32{1, 0}, 10, nil)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})

	t.Run("rejects non-positive topK", func(t *testing.T) {
		store := seed(t)
		_, err := store.Search(context.Background(), []float32{1, 0, 0}, 0, nil)
		assert.ErrorIs(t, err, vectorstore.ErrInvalidTopK)
	})
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []core.VectorRecord{
		record("a", []float32{1, 0, 0}, nil),
		record("b", []float32{0, 1, 0}, nil),
	}))

	t.Run("removes existing records", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, []string{"a"}))
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("unknown IDs are ignored", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, []string{"never-existed"}))
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestCountManyRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var records []core.VectorRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("rec-%02d", i), []float32{1, 0, 0}, nil))
	}
	require.NoError(t, store.Upsert(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestStoreIdentity(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, StoreName, store.Name())
	assert.Equal(t, vectorstore.MetricCosine, store.Metric())
}
