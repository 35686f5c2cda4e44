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


package corpus

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/poiesic/corpus/chunker"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/resilience"
	"github.com/poiesic/corpus/safety"
)

// Default chunking parameters.
const (
	DefaultMaxTokens     = 300
	DefaultOverlapTokens = 50
)

// IngestConfig controls one ingestion run. Zero MaxTokens falls back
// to DefaultMaxTokens; a zero overlap is honored as no overlap. Zero
// EmbedBatchSize falls back to the provider's batch limit; zero
// WorkerLimit leaves concurrency bounded only by the shared pool.
type IngestConfig struct {
	// MaxTokens bounds the token estimate of each chunk.
	MaxTokens int

	// OverlapTokens is the number of tokens adjacent chunks share.
	OverlapTokens int

	// EmbedBatchSize is the number of chunks sent per embedding call.
	// Clamped to the provider's MaxBatchSize.
	EmbedBatchSize int

	// WorkerLimit caps concurrently ingested documents for this run
	// only. The knowledge base's worker pool is shared across runs and
	// stays an upper bound; see WithPoolSize.
	WorkerLimit int
}

// DefaultIngestConfig returns the standard chunking configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
	}
}

type docStats struct {
	embedded int
	blocked  int
	flagged  int
}

// Ingest chunks, screens, embeds, and upserts documents with bounded
// concurrency. Failures are isolated per document: one bad document
// lands in the report's Errors map while its siblings proceed. A
// report is always returned unless the configuration itself is
// invalid.
func (kb *KnowledgeBase) Ingest(ctx context.Context, documents []core.Document, cfg *IngestConfig) (*core.IngestReport, error) {
	conf := DefaultIngestConfig()
	if cfg != nil {
		conf = *cfg
		if conf.MaxTokens == 0 {
			conf.MaxTokens = DefaultMaxTokens
		}
	}
	if conf.MaxTokens <= 0 || conf.OverlapTokens < 0 || conf.OverlapTokens >= conf.MaxTokens {
		return nil, fmt.Errorf("%w: maxTokens=%d overlapTokens=%d",
			chunker.ErrInvalidChunkConfig, conf.MaxTokens, conf.OverlapTokens)
	}
	if conf.EmbedBatchSize <= 0 || conf.EmbedBatchSize > kb.provider.MaxBatchSize() {
		conf.EmbedBatchSize = kb.provider.MaxBatchSize()
	}
	// WorkerLimit bounds this run with its own semaphore instead of
	// retuning the shared pool, so concurrent runs cannot throttle or
	// widen each other.
	var sem chan struct{}
	if conf.WorkerLimit > 0 {
		sem = make(chan struct{}, conf.WorkerLimit)
	}

	report := &core.IngestReport{Errors: make(map[string]error)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := range documents {
		doc := documents[i]
		docKey := doc.ID
		if docKey == "" {
			docKey = fmt.Sprintf("document[%d]", i)
		}

		if sem != nil {
			sem <- struct{}{}
		}
		wg.Add(1)
		submitErr := kb.pool.Submit(func() {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			stats, err := kb.ingestDocument(ctx, doc, conf)

			mu.Lock()
			defer mu.Unlock()
			report.ChunksEmbedded += stats.embedded
			report.ChunksBlocked += stats.blocked
			report.ChunksFlagged += stats.flagged
			if err != nil {
				report.Errors[docKey] = err
				return
			}
			report.DocumentsProcessed++
		})
		if submitErr != nil {
			wg.Done()
			if sem != nil {
				<-sem
			}
			mu.Lock()
			report.Errors[docKey] = submitErr
			mu.Unlock()
		}
	}

	wg.Wait()
	kb.logger.Info("ingestion finished",
		"documents", len(documents),
		"processed", report.DocumentsProcessed,
		"embedded", report.ChunksEmbedded,
		"blocked", report.ChunksBlocked,
		"failed", len(report.Errors))
	return report, nil
}

// ingestDocument runs the full pipeline for one document: chunk,
// screen, embed in batches, upsert.
func (kb *KnowledgeBase) ingestDocument(ctx context.Context, doc core.Document, cfg IngestConfig) (docStats, error) {
	var stats docStats

	if err := core.ValidateDocument(&doc); err != nil {
		return stats, err
	}

	chunks, err := chunker.Split(doc, cfg.MaxTokens, cfg.OverlapTokens)
	if err != nil {
		return stats, err
	}

	type pending struct {
		chunk      core.Chunk
		flagReason string
	}
	allowed := make([]pending, 0, len(chunks))
	for _, chunk := range chunks {
		verdict := kb.gate.Screen(chunk.Text)
		switch verdict.Decision {
		case safety.DecisionBlocked:
			stats.blocked++
			kb.logger.Debug("chunk blocked",
				"document", doc.ID, "ordinal", chunk.Ordinal, "reason", verdict.Reason)
		case safety.DecisionFlagged:
			stats.flagged++
			allowed = append(allowed, pending{chunk: chunk, flagReason: verdict.Reason})
		default:
			allowed = append(allowed, pending{chunk: chunk})
		}
	}

	for start := 0; start < len(allowed); start += cfg.EmbedBatchSize {
		end := min(start+cfg.EmbedBatchSize, len(allowed))
		batch := allowed[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.chunk.Text
		}

		var vectors [][]float32
		err := kb.executor.Call(ctx, kb.embedKey, func(ctx context.Context) error {
			out, err := kb.provider.EmbedBatch(ctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return resilience.Fatal(fmt.Errorf(
					"provider returned %d vectors for %d texts", len(out), len(texts)))
			}
			vectors = out
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("failed to embed chunks of %q: %w", doc.ID, err)
		}

		records := make([]core.VectorRecord, len(batch))
		for i, p := range batch {
			records[i] = core.VectorRecord{
				ID:      core.RecordID(doc.ID, p.chunk.Ordinal),
				Vector:  vectors[i],
				Text:    p.chunk.Text,
				Payload: buildPayload(doc, p.chunk, p.flagReason),
			}
		}

		err = kb.executor.Call(ctx, kb.storeKey, func(ctx context.Context) error {
			return kb.store.Upsert(ctx, records)
		})
		if err != nil {
			return stats, fmt.Errorf("failed to store chunks of %q: %w", doc.ID, err)
		}
		stats.embedded += len(batch)
	}

	return stats, nil
}

// buildPayload assembles the stored payload: document metadata plus
// provenance keys and the safety flag when present.
func buildPayload(doc core.Document, chunk core.Chunk, flagReason string) map[string]string {
	payload := make(map[string]string, len(doc.Metadata)+4)
	for k, v := range doc.Metadata {
		payload[k] = v
	}
	payload[core.PayloadDocumentID] = doc.ID
	payload[core.PayloadOrdinal] = strconv.Itoa(chunk.Ordinal)
	if doc.Source != "" {
		payload[core.PayloadSource] = doc.Source
	}
	if flagReason != "" {
		payload[core.PayloadSafetyFlag] = flagReason
	}
	return payload
}
