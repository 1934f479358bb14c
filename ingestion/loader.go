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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/lock"
	"github.com/poiesic/transcriptdb/storage"
)

// Loader writes records to the vector store in batches.
type Loader struct {
	store     storage.VectorStore
	locker    lock.Locker
	namespace string
	batchSize int
	lockName  string
	logger    *slog.Logger
}

// NewLoader creates a Loader. A nil locker gets an in-process lock.
func NewLoader(store storage.VectorStore, locker lock.Locker, config *Config, logger *slog.Logger) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:     store,
		locker:    locker,
		namespace: config.Namespace,
		batchSize: config.BatchSize,
		lockName:  config.NamespaceLockName(),
		logger:    logger.With("component", "loader"),
	}
}

func (l *Loader) with(logger *slog.Logger) *Loader {
	c := *l
	c.logger = logger
	return &c
}

// Load upserts records in batches while holding the load lock, so batches of
// different documents never interleave. It returns the number of records
// written before the first failure.
func (l *Loader) Load(ctx context.Context, records []*core.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	written := 0
	err := lock.Do(ctx, l.locker, l.lockName, func(ctx context.Context) error {
		for start := 0; start < len(records); start += l.batchSize {
			end := min(start+l.batchSize, len(records))
			if err := l.store.Upsert(ctx, l.namespace, records[start:end]...); err != nil {
				return fmt.Errorf("upserting records %d-%d: %w", start, end-1, err)
			}
			written = end
			l.logger.Debug("upserted batch", "records", end-start, "written", written)
		}
		return nil
	})
	return written, err
}
