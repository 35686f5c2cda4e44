package core

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// Document is a caller-owned unit of ingestion. It is treated as
// read-only by the pipeline: chunking and embedding never mutate it.
type Document struct {
	// ID uniquely identifies the document within the knowledge base.
	ID string

	// Text is the raw document text to be chunked and embedded.
	Text string

	// Metadata holds scalar key/value pairs carried into the payload
	// of every vector record produced from this document.
	Metadata map[string]string

	// Source is an opaque locator (path, URL) recorded for provenance.
	Source string
}

// Chunk is a bounded text span cut from a document. Ordinal records
// the chunk's position within its document and participates in record
// ID derivation, so re-ingestion converges on the same identifiers.
type Chunk struct {
	DocumentID string
	Ordinal    int
	Text       string
	TokenCount int
	Vector     []float32 // populated after embedding
}

// VectorRecord is the unit of storage in a vector store. Its ID is a
// pure function of (document ID, chunk ordinal), which makes upserts
// idempotent across re-ingestions.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Text    string
	Payload map[string]string
}

// Payload keys written by the ingestion pipeline.
const (
	PayloadDocumentID = "document_id"
	PayloadOrdinal    = "ordinal"
	PayloadSource     = "source"
	PayloadSafetyFlag = "safety_flag"
)

// SearchHit is a single scored match returned by a vector store.
// Scores are only comparable within one store and metric.
type SearchHit struct {
	ID      string
	Score   float32
	Text    string
	Payload map[string]string
}

// RetrievedEntry is one element of a RetrievalResult after safety
// screening. Flagged entries pass through with the reason attached.
type RetrievedEntry struct {
	Text       string
	Payload    map[string]string
	Score      float32
	Flagged    bool
	FlagReason string
}

// RetrievalResult is the ordered answer to a similarity query,
// sorted by score descending. Safety-blocked hits are dropped without
// backfilling, so the result may be shorter than requested.
type RetrievalResult struct {
	Query   string
	Entries []RetrievedEntry
}

// IngestReport summarizes an ingestion run. Failures are isolated per
// document: Errors maps a document ID to the first fatal error that
// aborted it, while sibling documents proceed normally.
type IngestReport struct {
	DocumentsProcessed int
	ChunksEmbedded     int
	ChunksBlocked      int
	ChunksFlagged      int
	Errors             map[string]error
}

// RecordID derives the deterministic vector-record identifier for a
// chunk using BLAKE2b hashing, so identical (document, ordinal) pairs
// always map to the same record.
func RecordID(documentID string, ordinal int) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(documentID))
	h.Write([]byte{0x1f})
	var ord [8]byte
	binary.BigEndian.PutUint64(ord[:], uint64(ordinal))
	h.Write(ord[:])
	return hex.EncodeToString(h.Sum(nil))
}
