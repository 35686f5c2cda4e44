package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := RecordID("doc-1", 0)
		b := RecordID("doc-1", 0)
		assert.Equal(t, a, b)
		assert.Len(t, a, 32) // 16 bytes hex-encoded
	})

	t.Run("distinct ordinals", func(t *testing.T) {
		assert.NotEqual(t, RecordID("doc-1", 0), RecordID("doc-1", 1))
	})

	t.Run("distinct documents", func(t *testing.T) {
		assert.NotEqual(t, RecordID("doc-1", 0), RecordID("doc-2", 0))
	})

	t.Run("no boundary ambiguity", func(t *testing.T) {
		// "ab"+ordinal must not collide with "a"+different suffix
		assert.NotEqual(t, RecordID("ab", 1), RecordID("a", 1))
	})
}

func TestVectorRecordMUSRoundTrip(t *testing.T) {
	record := VectorRecord{
		ID:     RecordID("doc-9", 3),
		Vector: []float32{0.25, -1.5, 3.0},
		Text:   "the quick brown fox",
		Payload: map[string]string{
			PayloadDocumentID: "doc-9",
			PayloadOrdinal:    "3",
			"topic":           "animals",
		},
	}

	data := MarshalVectorRecord(&record)
	decoded, err := UnmarshalVectorRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, *decoded)
}

func TestUnmarshalVectorRecordCorrupt(t *testing.T) {
	_, err := UnmarshalVectorRecord([]byte{0x02, 'x'})
	assert.Error(t, err)
}
