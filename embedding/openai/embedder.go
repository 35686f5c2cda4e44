package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/resilience"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderName is the registry name of this variant.
const ProviderName = "openai"

func init() {
	embedding.Register(ProviderName, New)
}

// Embedder implements embedding.Provider using OpenAI-compatible
// embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	dim      int
	maxBatch int
	logger   *slog.Logger
}

// New creates an embedding provider for any OpenAI-compatible
// endpoint using the provided configuration.
//
// Returns embedding.Provider interface to enforce abstraction.
func New(config *embedding.Config) (embedding.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// "none" works for local OpenAI-compatible services that don't
	// require authentication.
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		model:    config.Model,
		dim:      config.Dimension,
		maxBatch: config.MaxBatchSize,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// EmbedBatch generates embeddings for texts in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) > e.maxBatch {
		return nil, resilience.Fatal(fmt.Errorf("%w: %d texts, maximum %d",
			core.ErrBatchTooLarge, len(texts), e.maxBatch))
	}

	e.logger.Debug("generating embeddings for batch", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d",
			len(texts), len(vectors))
	}
	return vectors, nil
}

// EmbedQuery generates a vector embedding for a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for query", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate query embedding", "err", err)
		return nil, err
	}
	if len(vector) == 0 {
		return nil, embedding.ErrEmptyResult
	}
	return vector, nil
}

// Name returns the provider variant name.
func (e *Embedder) Name() string { return ProviderName }

// Model returns the configured embedding model identifier.
func (e *Embedder) Model() string { return e.model }

// Dimension returns the configured output dimension.
func (e *Embedder) Dimension() int { return e.dim }

// MaxBatchSize returns the largest accepted batch.
func (e *Embedder) MaxBatchSize() int { return e.maxBatch }
