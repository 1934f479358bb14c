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

package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/storage"
)

// Store implements storage.VectorStore on BadgerDB.
// Records are stored as JSON under rec:<namespace>/<id>; each namespace
// remembers the dimension of the first vector written to it.
type Store struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore creates a Store on an already opened backend.
// Closing the Store leaves the backend open.
func NewStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// OpenStore opens (or creates) a BadgerDB database at path and returns a
// Store that closes it on Close.
//
// Returns storage.VectorStore interface to enforce abstraction.
func OpenStore(path string) (storage.VectorStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	s := NewStore(backend)
	s.ownsBackend = true
	return s, nil
}

// Close closes the backend if the Store opened it.
func (s *Store) Close() error {
	if !s.ownsBackend || s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

func (s *Store) check(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return core.ValidateNamespace(namespace)
}

// Upsert writes records into namespace in a single transaction.
// Every vector must match the namespace dimension.
func (s *Store) Upsert(ctx context.Context, namespace string, records ...*core.Record) error {
	if err := s.check(ctx, namespace); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
	}

	err := s.backend.Update(func(tx *badger.Txn) error {
		dim, err := readDimension(tx, namespace)
		if err != nil {
			return err
		}
		if dim == 0 {
			dim = len(records[0].Values)
			if err := tx.Set(makeDimensionKey(namespace), encodeDimension(dim)); err != nil {
				return err
			}
		}

		for _, record := range records {
			if len(record.Values) != dim {
				return fmt.Errorf("%w: record %s has %d values, namespace %q has %d",
					storage.ErrDimensionMismatch, record.ID, len(record.Values), namespace, dim)
			}
			value, err := storage.MarshalRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(makeRecordKey(namespace, record.ID), value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("upserted records", "namespace", namespace, "count", len(records))
	return nil
}

// Fetch retrieves records by id. Missing ids are skipped.
func (s *Store) Fetch(ctx context.Context, namespace string, ids ...string) ([]*core.Record, error) {
	if err := s.check(ctx, namespace); err != nil {
		return nil, err
	}

	records := make([]*core.Record, 0, len(ids))
	err := s.backend.View(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeRecordKey(namespace, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			err = item.Value(func(val []byte) error {
				record, err := storage.UnmarshalRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteNamespace removes every record in namespace along with its dimension.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := s.check(ctx, namespace); err != nil {
		return err
	}

	deleted, err := s.backend.deletePrefix(makeNamespacePrefix(namespace))
	if err != nil {
		return err
	}
	err = s.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeDimensionKey(namespace))
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted namespace", "namespace", namespace, "records", deleted)
	return nil
}

// Query scans namespace and returns the topK records with the highest cosine
// similarity to vector.
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]*core.Match, error) {
	if err := s.check(ctx, namespace); err != nil {
		return nil, err
	}
	if topK < 1 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Match
	err := s.backend.View(func(tx *badger.Txn) error {
		dim, err := readDimension(tx, namespace)
		if err != nil {
			return err
		}
		if dim != 0 && dim != len(vector) {
			return fmt.Errorf("%w: query has %d values, namespace %q has %d",
				storage.ErrDimensionMismatch, len(vector), namespace, dim)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.Record
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			results = append(results, &core.Match{
				Record: record,
				Score:  cosineSimilarity(vector, record.Values),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b *core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func readDimension(tx *badger.Txn, namespace string) (int, error) {
	item, err := tx.Get(makeDimensionKey(namespace))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var dim int
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("%w: dimension value has %d bytes", storage.ErrSerializationFailed, len(val))
		}
		dim = int(binary.BigEndian.Uint64(val))
		return nil
	})
	return dim, err
}

func encodeDimension(dim int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(dim))
	return buf
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0 if
// either vector has zero length.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
