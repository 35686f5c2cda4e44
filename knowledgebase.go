// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package corpus is a retrieval-augmented knowledge base core. It
// composes a chunker, an embedding provider, a vector store, and a
// safety gate into two operations: Ingest and Retrieve. All provider
// and store calls are routed through a shared resilience layer with
// retries and per-endpoint circuit breakers.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/resilience"
	"github.com/poiesic/corpus/safety"
	"github.com/poiesic/corpus/vectorstore"
)

// KnowledgeBase ties the ingestion and retrieval pipelines together.
// The caller owns the provider and store lifecycles; Close releases
// only resources the knowledge base created itself.
type KnowledgeBase struct {
	provider embedding.Provider
	store    vectorstore.Store
	gate     *safety.Gate
	executor *resilience.Executor
	pool     *ants.Pool
	logger   *slog.Logger

	embedKey string
	storeKey string
}

// Option configures a KnowledgeBase.
type Option func(*KnowledgeBase) error

// WithSafetyGate sets the gate applied to chunks before upsert and to
// hits before they are returned. Default is no screening.
func WithSafetyGate(gate *safety.Gate) Option {
	return func(kb *KnowledgeBase) error {
		kb.gate = gate
		return nil
	}
}

// WithExecutor sets the resilience executor wrapping provider and
// store calls. Default is resilience.NewExecutor().
func WithExecutor(executor *resilience.Executor) Option {
	return func(kb *KnowledgeBase) error {
		if executor != nil {
			kb.executor = executor
		}
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(kb *KnowledgeBase) error {
		if size < 1 {
			size = 1
		}
		if kb.pool != nil {
			kb.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		kb.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(kb *KnowledgeBase) error {
		if logger == nil {
			logger = slog.Default()
		}
		kb.logger = logger
		return nil
	}
}

// NewKnowledgeBase builds a knowledge base over the given provider
// and store, ensuring the store collection exists with the provider's
// vector dimension before any data flows.
func NewKnowledgeBase(ctx context.Context, provider embedding.Provider, store vectorstore.Store, opts ...Option) (*KnowledgeBase, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	executor, err := resilience.NewExecutor()
	if err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	kb := &KnowledgeBase{
		provider: provider,
		store:    store,
		executor: executor,
		pool:     pool,
		logger:   slog.Default().With("component", "knowledgebase"),
		embedKey: "embedding:" + provider.Name(),
		storeKey: "vectorstore:" + store.Name(),
	}

	for _, opt := range opts {
		if optErr := opt(kb); optErr != nil {
			kb.pool.Release()
			return nil, optErr
		}
	}

	err = kb.executor.Call(ctx, kb.storeKey, func(ctx context.Context) error {
		return store.EnsureCollection(ctx, provider.Dimension())
	})
	if err != nil {
		kb.pool.Release()
		return nil, fmt.Errorf("failed to prepare collection for %s/%s: %w",
			provider.Name(), provider.Model(), err)
	}

	kb.logger.Info("knowledge base ready",
		"provider", provider.Name(),
		"model", provider.Model(),
		"dimension", provider.Dimension(),
		"store", store.Name(),
		"metric", store.Metric())
	return kb, nil
}

// Close releases the worker pool. The provider and store were
// supplied by the caller and stay open.
func (kb *KnowledgeBase) Close() error {
	kb.pool.Release()
	return nil
}

// Delete removes every stored record belonging to a document. The
// store must support filtered deletes.
func (kb *KnowledgeBase) Delete(ctx context.Context, documentID string) (int, error) {
	if documentID == "" {
		return 0, core.ErrEmptyDocumentID
	}
	deleter, ok := kb.store.(vectorstore.FilterDeleter)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDeleteUnsupported, kb.store.Name())
	}

	var deleted int
	err := kb.executor.Call(ctx, kb.storeKey, func(ctx context.Context) error {
		n, err := deleter.DeleteByFilter(ctx, []vectorstore.Filter{
			vectorstore.Eq(core.PayloadDocumentID, documentID),
		})
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	kb.logger.Info("deleted document records", "document", documentID, "records", deleted)
	return deleted, nil
}

// Executor exposes the resilience layer for breaker introspection.
func (kb *KnowledgeBase) Executor() *resilience.Executor {
	return kb.executor
}
