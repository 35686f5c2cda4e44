package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/safety"
	"github.com/poiesic/corpus/vectorstore"
)

// Retrieve embeds the query, searches the vector store, and screens
// the hits. Blocked hits are dropped without backfilling, so the
// result may hold fewer than topK entries; flagged hits pass through
// with the reason attached. A failed query embedding or search is a
// top-level error.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int, filters []vectorstore.Filter) (*core.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}

	var queryVector []float32
	err := kb.executor.Call(ctx, kb.embedKey, func(ctx context.Context) error {
		vector, err := kb.provider.EmbedQuery(ctx, query)
		if err != nil {
			return err
		}
		queryVector = vector
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var hits []core.SearchHit
	err = kb.executor.Call(ctx, kb.storeKey, func(ctx context.Context) error {
		found, err := kb.store.Search(ctx, queryVector, topK, filters)
		if err != nil {
			return err
		}
		hits = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	result := &core.RetrievalResult{
		Query:   query,
		Entries: make([]core.RetrievedEntry, 0, len(hits)),
	}
	dropped := 0
	for _, hit := range hits {
		verdict := kb.gate.Screen(hit.Text)
		if verdict.Decision == safety.DecisionBlocked {
			dropped++
			continue
		}
		entry := core.RetrievedEntry{
			Text:    hit.Text,
			Payload: hit.Payload,
			Score:   hit.Score,
		}
		if verdict.Decision == safety.DecisionFlagged {
			entry.Flagged = true
			entry.FlagReason = verdict.Reason
		} else if reason := hit.Payload[core.PayloadSafetyFlag]; reason != "" {
			entry.Flagged = true
			entry.FlagReason = reason
		}
		result.Entries = append(result.Entries, entry)
	}
	if len(result.Entries) > topK {
		result.Entries = result.Entries[:topK]
	}

	if dropped > 0 {
		kb.logger.Debug("dropped blocked results", "dropped", dropped)
	}
	return result, nil
}
