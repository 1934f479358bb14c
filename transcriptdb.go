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

// Package transcriptdb ties a vector store, the language services and a
// text extractor together for ingesting and searching interview transcripts.
package transcriptdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/ai/openai"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/extract"
	"github.com/poiesic/transcriptdb/ingestion"
	"github.com/poiesic/transcriptdb/lock"
	"github.com/poiesic/transcriptdb/search"
	"github.com/poiesic/transcriptdb/storage"
	"github.com/poiesic/transcriptdb/storage/badger"
)

// ErrEmptyUpdate is returned by UpdateMetadata when there is nothing to set.
var ErrEmptyUpdate = errors.New("no metadata to update")

type Database struct {
	store     storage.VectorStore
	provider  ai.AIProvider
	extractor extract.TextExtractor
	locker    lock.Locker
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	extractor extract.TextExtractor
	locker    lock.Locker
	logger    *slog.Logger
}

// WithAIConfig sets the configuration used to create the OpenAI provider.
// Ignored when WithProvider is given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses an existing AI provider. The Database closes it on Close.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithExtractor replaces the default extension-based text extractor.
func WithExtractor(extractor extract.TextExtractor) DatabaseOption {
	return func(o *databaseOptions) {
		o.extractor = extractor
	}
}

// WithLocker sets the lock guarding namespace writes.
func WithLocker(locker lock.Locker) DatabaseOption {
	return func(o *databaseOptions) {
		o.locker = locker
	}
}

// WithLogger sets the logger handed to pipelines and searchers.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase wraps store. The Database owns store and closes it on Close.
func NewDatabase(store storage.VectorStore, opts ...DatabaseOption) (*Database, error) {
	if store == nil {
		return nil, ingestion.ErrStoreRequired
	}
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}
	extractor := options.extractor
	if extractor == nil {
		extractor = extract.NewByExtension()
	}
	locker := options.locker
	if locker == nil {
		locker = lock.NewLocal()
	}

	return &Database{
		store:     store,
		provider:  provider,
		extractor: extractor,
		locker:    locker,
		logger:    options.logger,
	}, nil
}

// OpenLocal opens (or creates) a badger store at filePath.
func OpenLocal(filePath string, opts ...DatabaseOption) (*Database, error) {
	store, err := badger.OpenStore(filePath)
	if err != nil {
		return nil, err
	}
	db, err := NewDatabase(store, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

func (db *Database) Store() storage.VectorStore {
	return db.store
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

// NewIngestionPipeline creates a pipeline sharing the database's lock and
// logger. Later options override them.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithLocker(db.locker),
		ingestion.WithLogger(db.logger),
	}
	return ingestion.NewPipeline(db.store, db.provider, db.extractor, append(base, opts...)...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(db.logger)}
	return search.NewSearcher(db.store, db.provider, append(base, opts...)...)
}

// DeleteNamespace removes every record in namespace while holding the
// namespace write lock.
func (db *Database) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := core.ValidateNamespace(namespace); err != nil {
		return err
	}
	return lock.Do(ctx, db.locker, db.lockName(namespace), func(ctx context.Context) error {
		if err := db.store.DeleteNamespace(ctx, namespace); err != nil {
			return fmt.Errorf("deleting namespace %s: %w", namespace, err)
		}
		db.logger.Info("namespace deleted", "namespace", namespace)
		return nil
	})
}

// UpdateMetadata merges updates into the metadata of record id and writes
// the record back with its vector unchanged. Returns storage.ErrNotFound if
// the record does not exist.
func (db *Database) UpdateMetadata(ctx context.Context, namespace, id string, updates map[string]any) (*core.Record, error) {
	if err := core.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	var updated *core.Record
	err := lock.Do(ctx, db.locker, db.lockName(namespace), func(ctx context.Context) error {
		found, err := db.store.Fetch(ctx, namespace, id)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", id, err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}

		current := found[0]
		metadata := make(map[string]any, len(current.Metadata)+len(updates))
		for k, v := range current.Metadata {
			metadata[k] = v
		}
		for k, v := range updates {
			metadata[k] = v
		}
		updated = &core.Record{ID: current.ID, Values: current.Values, Metadata: metadata}

		if err := db.store.Upsert(ctx, namespace, updated); err != nil {
			return fmt.Errorf("writing %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	db.logger.Debug("metadata updated", "namespace", namespace, "id", id, "keys", len(updates))
	return updated, nil
}

func (db *Database) lockName(namespace string) string {
	cfg := ingestion.DefaultConfig()
	cfg.Namespace = namespace
	return cfg.NamespaceLockName()
}
