package corpus

import "errors"

// Sentinel errors for knowledge base construction and queries.
var (
	// ErrProviderRequired indicates NewKnowledgeBase was called
	// without an embedding provider.
	ErrProviderRequired = errors.New("embedding provider is required")

	// ErrStoreRequired indicates NewKnowledgeBase was called without
	// a vector store.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrEmptyQuery indicates a retrieval with no query text.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrDeleteUnsupported indicates the configured vector store
	// cannot delete records by document.
	ErrDeleteUnsupported = errors.New("vector store does not support delete by document")
)
