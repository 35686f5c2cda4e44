package vectorstore

import (
	"context"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	name string
}

func (s *stubStore) EnsureCollection(ctx context.Context, dimension int) error { return nil }
func (s *stubStore) Upsert(ctx context.Context, records []core.VectorRecord) error {
	return nil
}
func (s *stubStore) Search(ctx context.Context, vector []float32, topK int, filters []Filter) ([]core.SearchHit, error) {
	return nil, nil
}
func (s *stubStore) Delete(ctx context.Context, ids []string) error { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)         { return 0, nil }
func (s *stubStore) Name() string                                   { return s.name }
func (s *stubStore) Metric() Metric                                 { return MetricCosine }
func (s *stubStore) Close() error                                   { return nil }

func TestRegistry(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		_, err := New(context.Background(), "does-not-exist", &Config{Collection: "c"})
		assert.ErrorIs(t, err, ErrUnknownStore)
	})

	t.Run("registered store is constructable", func(t *testing.T) {
		Register("stub", func(ctx context.Context, cfg *Config) (Store, error) {
			return &stubStore{name: "stub"}, nil
		})

		store, err := New(context.Background(), "stub", &Config{Collection: "c"})
		require.NoError(t, err)
		assert.Equal(t, "stub", store.Name())
		assert.Contains(t, Names(), "stub")
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		Register("stub-dup", func(ctx context.Context, cfg *Config) (Store, error) {
			return &stubStore{name: "stub-dup"}, nil
		})
		assert.Panics(t, func() {
			Register("stub-dup", func(ctx context.Context, cfg *Config) (Store, error) {
				return &stubStore{name: "stub-dup"}, nil
			})
		})
	})
}

func TestFilterOpString(t *testing.T) {
	assert.Equal(t, "==", OpEq.String())
	assert.Equal(t, "!=", OpNeq.String())
	assert.Equal(t, ">=", OpGte.String())
	assert.Equal(t, "<=", OpLte.String())
}
