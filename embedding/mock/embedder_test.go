package mock

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatchLengthProperty(t *testing.T) {
	m := NewEmbedder(64, 16)
	ctx := context.Background()

	for _, size := range []int{1, 3, 16} {
		texts := make([]string, size)
		for i := range texts {
			texts[i] = fmt.Sprintf("text %d", i)
		}
		vectors, err := m.EmbedBatch(ctx, texts)
		require.NoError(t, err)
		assert.Len(t, vectors, size)
		for _, v := range vectors {
			assert.Len(t, v, 64)
		}
	}
}

func TestEmbedBatchRejectsOversizedBatch(t *testing.T) {
	m := NewEmbedder(64, 2)
	_, err := m.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBatchTooLarge)
	assert.False(t, resilience.IsRetryable(err))
}

func TestEmbeddingsAreDeterministic(t *testing.T) {
	m := NewEmbedder(32, 16)
	ctx := context.Background()

	a, err := m.EmbedQuery(ctx, "hello")
	require.NoError(t, err)
	b, err := m.EmbedQuery(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := m.EmbedQuery(ctx, "goodbye")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBehaviorInjection(t *testing.T) {
	m := NewEmbedder(8, 4)
	wantErr := fmt.Errorf("injected failure")
	m.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, wantErr
	}

	_, err := m.EmbedBatch(context.Background(), []string{"x"})
	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	_, err = m.EmbedBatch(context.Background(), []string{"x"})
	assert.NoError(t, err)
}
