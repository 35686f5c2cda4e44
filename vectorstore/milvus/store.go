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


// Package milvus implements the vector store on a Milvus server.
//
// Records live in one collection with an HNSW index over the vector
// field and the payload stored as a JSON field, so payload filters
// compile to Milvus boolean expressions and run server-side. Use this
// variant when the corpus outgrows the embedded badger store.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// StoreName is the registry name of this variant.
const StoreName = "milvus"

// Field names in the record collection.
const (
	fieldID      = "id"
	fieldText    = "text"
	fieldPayload = "payload"
	fieldVector  = "vector"
)

const (
	idMaxLength   = "255"
	textMaxLength = "65535"
)

func init() {
	vectorstore.Register(StoreName, func(ctx context.Context, cfg *vectorstore.Config) (vectorstore.Store, error) {
		if cfg == nil || cfg.Collection == "" {
			return nil, fmt.Errorf("milvus store requires a collection name")
		}
		return Connect(ctx, cfg.Address, cfg.Collection)
	})
}

// Store is a Milvus-backed vector store scoped to one collection.
type Store struct {
	client     *milvusclient.Client
	collection string
	logger     *slog.Logger

	mu  sync.Mutex
	dim int // 0 until the collection is known
}

var _ vectorstore.Store = (*Store)(nil)

// Connect dials a Milvus server and returns a store for the given
// collection. The collection is not created until EnsureCollection.
func Connect(ctx context.Context, address, collection string) (*Store, error) {
	client, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", address, err)
	}
	return &Store{
		client:     client,
		collection: collection,
		logger:     slog.Default().With("component", "vectorstore.milvus"),
	}, nil
}

// Close closes the Milvus connection.
func (s *Store) Close() error {
	return s.client.Close(context.Background())
}

// Name returns the registry name of this variant.
func (s *Store) Name() string {
	return StoreName
}

// Metric reports cosine similarity.
func (s *Store) Metric() vectorstore.Metric {
	return vectorstore.MetricCosine
}

// EnsureCollection creates the collection and its HNSW index if they
// do not exist, then loads the collection for searching. An existing
// collection with a different vector dimension is a hard error.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}

	if exists {
		existing, err := s.describeDimension(ctx)
		if err != nil {
			return err
		}
		if existing != dimension {
			return fmt.Errorf("%w: collection %q has dimension %d, requested %d",
				core.ErrDimensionMismatch, s.collection, existing, dimension)
		}
	} else {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Knowledge base vector records",
			Fields: []*entity.Field{
				{
					Name:       fieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": idMaxLength,
					},
				},
				{
					Name:     fieldText,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": textMaxLength,
					},
				},
				{
					Name:     fieldPayload,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     fieldVector,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", dimension),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(s.collection, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}

		vectorIdx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(s.collection, fieldVector, vectorIdx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create vector index on %s: %w", s.collection, err)
		}
		s.logger.Info("created collection", "collection", s.collection, "dimension", dimension)
	}

	// Milvus requires loading before search; loading twice is harmless.
	loadOpt := milvusclient.NewLoadCollectionOption(s.collection)
	if _, err := s.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", s.collection, err)
	}

	s.mu.Lock()
	s.dim = dimension
	s.mu.Unlock()
	return nil
}

// describeDimension reads the vector field dimension from the schema.
func (s *Store) describeDimension(ctx context.Context) (int, error) {
	coll, err := s.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(s.collection))
	if err != nil {
		return 0, fmt.Errorf("failed to describe collection %s: %w", s.collection, err)
	}
	for _, field := range coll.Schema.Fields {
		if field.Name != fieldVector {
			continue
		}
		dim, err := strconv.Atoi(field.TypeParams["dim"])
		if err != nil {
			return 0, fmt.Errorf("collection %s has unparseable dimension: %w", s.collection, err)
		}
		return dim, nil
	}
	return 0, fmt.Errorf("collection %s has no vector field", s.collection)
}

// dimension returns the known collection dimension, querying the
// server the first time.
func (s *Store) dimension(ctx context.Context) (int, error) {
	s.mu.Lock()
	dim := s.dim
	s.mu.Unlock()
	if dim > 0 {
		return dim, nil
	}

	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %q", vectorstore.ErrCollectionNotFound, s.collection)
	}
	dim, err = s.describeDimension(ctx)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.dim = dim
	s.mu.Unlock()
	return dim, nil
}

// Upsert writes records in one column-based request, replacing any
// record with the same primary key.
func (s *Store) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	texts := make([]string, 0, len(records))
	payloads := make([][]byte, 0, len(records))
	vectors := make([][]float32, 0, len(records))

	for i := range records {
		rec := &records[i]
		if err := core.ValidateRecord(rec); err != nil {
			return err
		}
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: record %q has %d dimensions, collection %q has %d",
				core.ErrDimensionMismatch, rec.ID, len(rec.Vector), s.collection, dim)
		}
		payload := rec.Payload
		if payload == nil {
			payload = map[string]string{}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload for record %q: %w", rec.ID, err)
		}
		ids = append(ids, rec.ID)
		texts = append(texts, rec.Text)
		payloads = append(payloads, data)
		vectors = append(vectors, rec.Vector)
	}

	upsertOpt := milvusclient.NewColumnBasedInsertOption(s.collection,
		column.NewColumnVarChar(fieldID, ids),
		column.NewColumnVarChar(fieldText, texts),
		column.NewColumnJSONBytes(fieldPayload, payloads),
		column.NewColumnFloatVector(fieldVector, dim, vectors),
	)
	if _, err := s.client.Upsert(ctx, upsertOpt); err != nil {
		return fmt.Errorf("failed to upsert %d records into %s: %w", len(records), s.collection, err)
	}
	return nil
}

// Search runs an ANN search over the vector field with payload
// filters compiled to a Milvus boolean expression.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filters []vectorstore.Filter) ([]core.SearchHit, error) {
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}
	dim, err := s.dimension(ctx)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %q has %d",
			core.ErrDimensionMismatch, len(vector), s.collection, dim)
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(fieldVector).
		WithOutputFields(fieldText, fieldPayload)
	if expr := buildFilterExpr(filters); expr != "" {
		searchOpt = searchOpt.WithFilter(expr)
	}

	resultSets, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("search in %s failed: %w", s.collection, err)
	}

	var hits []core.SearchHit
	for _, rs := range resultSets {
		collected, err := collectHits(rs)
		if err != nil {
			return nil, err
		}
		hits = append(hits, collected...)
	}
	return hits, nil
}

// collectHits converts one Milvus result set into search hits. Read
// errors on any column surface to the caller; a hit is never returned
// with silently missing fields.
func collectHits(rs milvusclient.ResultSet) ([]core.SearchHit, error) {
	textCol := rs.GetColumn(fieldText)
	payloadCol := rs.GetColumn(fieldPayload)

	var hits []core.SearchHit
	for i := 0; i < rs.IDs.Len(); i++ {
		id, err := rs.IDs.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read hit ID: %w", err)
		}
		hit := core.SearchHit{ID: id}
		if i < len(rs.Scores) {
			hit.Score = rs.Scores[i]
		}
		if textCol != nil {
			text, err := textCol.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read hit text: %w", err)
			}
			hit.Text = text
		}
		if payloadCol != nil {
			raw, err := payloadCol.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read hit payload: %w", err)
			}
			payload := map[string]string{}
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, fmt.Errorf("%w: payload of hit %q: %v", core.ErrCorruptRecord, id, err)
			}
			hit.Payload = payload
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildFilterExpr compiles payload filters to a Milvus boolean
// expression over the JSON payload field. Values compare as strings.
func buildFilterExpr(filters []vectorstore.Filter) string {
	if len(filters) == 0 {
		return ""
	}
	terms := make([]string, 0, len(filters))
	for _, f := range filters {
		terms = append(terms, fmt.Sprintf("%s[%q] %s %q", fieldPayload, f.Field, f.Op, f.Value))
	}
	return strings.Join(terms, " and ")
}

// DeleteByFilter removes every record whose payload matches the
// filters, using a server-side delete expression.
func (s *Store) DeleteByFilter(ctx context.Context, filters []vectorstore.Filter) (int, error) {
	expr := buildFilterExpr(filters)
	if expr == "" {
		return 0, vectorstore.ErrEmptyFilter
	}
	deleteOpt := milvusclient.NewDeleteOption(s.collection).WithExpr(expr)
	result, err := s.client.Delete(ctx, deleteOpt)
	if err != nil {
		return 0, fmt.Errorf("filtered delete in %s failed: %w", s.collection, err)
	}
	return int(result.DeleteCount), nil
}

var _ vectorstore.FilterDeleter = (*Store)(nil)

// Delete removes records by primary key. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	deleteOpt := milvusclient.NewDeleteOption(s.collection).WithStringIDs(fieldID, ids)
	if _, err := s.client.Delete(ctx, deleteOpt); err != nil {
		return fmt.Errorf("failed to delete %d records from %s: %w", len(ids), s.collection, err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	queryOpt := milvusclient.NewQueryOption(s.collection).
		WithOutputFields("count(*)").
		WithConsistencyLevel(entity.ClStrong)
	result, err := s.client.Query(ctx, queryOpt)
	if err != nil {
		return 0, fmt.Errorf("failed to count records in %s: %w", s.collection, err)
	}
	countCol := result.GetColumn("count(*)")
	if countCol == nil || countCol.Len() == 0 {
		return 0, nil
	}
	count, err := countCol.GetAsInt64(0)
	if err != nil {
		return 0, fmt.Errorf("failed to read record count: %w", err)
	}
	return int(count), nil
}
