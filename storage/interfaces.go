package storage

import (
	"context"

	"github.com/poiesic/transcriptdb/core"
)

// VectorStore holds namespaced (id, vector, metadata) records.
// Implementations must be thread-safe and support concurrent access.
type VectorStore interface {
	// Upsert writes records into namespace, replacing any record with the
	// same id. The batch is applied as a unit where the backend allows it.
	Upsert(ctx context.Context, namespace string, records ...*core.Record) error

	// Fetch retrieves records by id.
	// Returns only the records that exist (no error for missing ids).
	Fetch(ctx context.Context, namespace string, ids ...string) ([]*core.Record, error)

	// DeleteNamespace removes every record in namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Query returns up to topK records most similar to vector, ordered by
	// score (highest first).
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]*core.Match, error)

	// Close releases resources held by the store.
	Close() error
}
