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


// Package badger implements the vector store on embedded BadgerDB.
//
// Records are serialized with MUS and scanned under a per-collection
// key prefix. Search is a full scan with exact cosine scoring, which
// is the right trade for collections in the tens of thousands of
// records; larger corpora should use the milvus variant. An in-memory
// mode backs tests without touching disk.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// StoreName is the registry name of this variant.
const StoreName = "badger"

// ErrMissingCollection indicates a configuration without a collection name.
var ErrMissingCollection = errors.New("collection name is required")

func init() {
	vectorstore.Register(StoreName, func(ctx context.Context, cfg *vectorstore.Config) (vectorstore.Store, error) {
		if cfg == nil {
			return nil, ErrMissingCollection
		}
		return Open(cfg.Path, cfg.Collection, cfg.InMemory)
	})
}

// Store is an embedded BadgerDB vector store scoped to one collection.
type Store struct {
	db         *badger.DB
	collection string
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens a BadgerDB-backed store at the specified path.
// Creates the directory if it doesn't exist. With inMemory set the
// path is ignored and nothing is written to disk.
func Open(filePath, collection string, inMemory bool) (*Store, error) {
	if collection == "" {
		return nil, ErrMissingCollection
	}

	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		collection: collection,
		logger:     slog.Default().With("component", "vectorstore.badger"),
	}, nil
}

// Close closes the underlying BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name returns the registry name of this variant.
func (s *Store) Name() string {
	return StoreName
}

// Metric reports cosine similarity.
func (s *Store) Metric() vectorstore.Metric {
	return vectorstore.MetricCosine
}

// withTx executes a function within a BadgerDB transaction.
// Write transactions are committed when fn succeeds and discarded otherwise.
func (s *Store) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if s.db.IsClosed() {
		return vectorstore.ErrStoreClosed
	}
	tx := s.db.NewTransaction(isWrite)
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	if isWrite {
		return tx.Commit()
	}
	return nil
}

// EnsureCollection creates the collection metadata if absent. An
// existing collection with a different dimension is a hard error.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	return s.withTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(s.collection)
		item, err := tx.Get(key)
		if err == nil {
			var existing int
			if err := item.Value(func(val []byte) error {
				existing = decodeDimension(val)
				return nil
			}); err != nil {
				return err
			}
			if existing != dimension {
				return fmt.Errorf("%w: collection %q has dimension %d, requested %d",
					core.ErrDimensionMismatch, s.collection, existing, dimension)
			}
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		s.logger.Info("creating collection", "collection", s.collection, "dimension", dimension)
		return tx.Set(key, encodeDimension(dimension))
	}, true)
}

// dimension reads the collection dimension from metadata.
func (s *Store) dimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get(makeCollectionKey(s.collection))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, fmt.Errorf("%w: %q", vectorstore.ErrCollectionNotFound, s.collection)
		}
		return 0, err
	}
	var dim int
	err = item.Value(func(val []byte) error {
		dim = decodeDimension(val)
		return nil
	})
	return dim, err
}

func encodeDimension(dim int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return buf
}

func decodeDimension(val []byte) int {
	if len(val) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(val))
}

// Upsert writes records, replacing any record with the same ID.
func (s *Store) Upsert(ctx context.Context, records []core.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.withTx(func(tx *badger.Txn) error {
		dim, err := s.dimension(tx)
		if err != nil {
			return err
		}
		for i := range records {
			rec := &records[i]
			if err := core.ValidateRecord(rec); err != nil {
				return err
			}
			if len(rec.Vector) != dim {
				return fmt.Errorf("%w: record %q has %d dimensions, collection %q has %d",
					core.ErrDimensionMismatch, rec.ID, len(rec.Vector), s.collection, dim)
			}
			data := core.MarshalVectorRecord(rec)
			if err := tx.Set(makeRecordKey(s.collection, rec.ID), data); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Search scans the collection, scores every matching record by cosine
// similarity, and returns the topK best hits in descending score order.
// Only equality filters are supported.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filters []vectorstore.Filter) ([]core.SearchHit, error) {
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}
	for _, f := range filters {
		if f.Op != vectorstore.OpEq {
			return nil, fmt.Errorf("%w: badger store supports equality only, got %s on field %q",
				core.ErrUnsupportedFilter, f.Op, f.Field)
		}
	}

	var hits []core.SearchHit
	err := s.withTx(func(tx *badger.Txn) error {
		dim, err := s.dimension(tx)
		if err != nil {
			return err
		}
		if len(vector) != dim {
			return fmt.Errorf("%w: query has %d dimensions, collection %q has %d",
				core.ErrDimensionMismatch, len(vector), s.collection, dim)
		}

		query := core.NormalizeVector(vector)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(s.collection)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec core.VectorRecord
			err := it.Item().Value(func(val []byte) error {
				decoded, err := core.UnmarshalVectorRecord(val)
				if err != nil {
					return err
				}
				rec = *decoded
				return nil
			})
			if err != nil {
				return err
			}
			if !matchesFilters(rec.Payload, filters) {
				continue
			}
			hits = append(hits, core.SearchHit{
				ID:      rec.ID,
				Score:   core.DotProduct(query, core.NormalizeVector(rec.Vector)),
				Text:    rec.Text,
				Payload: rec.Payload,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func matchesFilters(payload map[string]string, filters []vectorstore.Filter) bool {
	for _, f := range filters {
		value, ok := payload[f.Field]
		if !ok || value != f.Value {
			return false
		}
	}
	return true
}

// DeleteByFilter removes every record whose payload matches all
// equality filters and reports how many were deleted.
func (s *Store) DeleteByFilter(ctx context.Context, filters []vectorstore.Filter) (int, error) {
	if len(filters) == 0 {
		return 0, vectorstore.ErrEmptyFilter
	}
	for _, f := range filters {
		if f.Op != vectorstore.OpEq {
			return 0, fmt.Errorf("%w: badger store supports equality only, got %s on field %q",
				core.ErrUnsupportedFilter, f.Op, f.Field)
		}
	}

	var deleted int
	err := s.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(s.collection)
		it := tx.NewIterator(opts)

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				rec, err := core.UnmarshalVectorRecord(val)
				if err != nil {
					return err
				}
				if matchesFilters(rec.Payload, filters) {
					keys = append(keys, it.Item().KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return nil
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

var _ vectorstore.FilterDeleter = (*Store)(nil)

// Delete removes records by ID. IDs that do not exist are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeRecordKey(s.collection, id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(s.collection)
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}
