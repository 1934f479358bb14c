package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/lock"
	"github.com/poiesic/transcriptdb/storage"
)

var errUpsert = errors.New("upsert failed")

// recordingStore is an in-memory storage.VectorStore that remembers every
// upsert call.
type recordingStore struct {
	mu      sync.Mutex
	records map[string]*core.Record
	batches [][]*core.Record
	failAt  int // 1-based upsert call that fails; 0 never fails
	calls   int
}

var _ storage.VectorStore = (*recordingStore)(nil)

func newRecordingStore() *recordingStore {
	return &recordingStore{records: make(map[string]*core.Record)}
}

func (s *recordingStore) Upsert(ctx context.Context, namespace string, records ...*core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return errUpsert
	}
	batch := make([]*core.Record, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *recordingStore) Fetch(ctx context.Context, namespace string, ids ...string) ([]*core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*core.Record
	for _, id := range ids {
		if r, ok := s.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *recordingStore) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*core.Record)
	return nil
}

func (s *recordingStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]*core.Match, error) {
	return nil, nil
}

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) all() []*core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

func (s *recordingStore) batchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = len(b)
	}
	return sizes
}

// countingLocker wraps a Locker and counts calls.
type countingLocker struct {
	mu      sync.Mutex
	inner   lock.Locker
	locks   int
	unlocks int
	names   []string
}

func (l *countingLocker) Lock(ctx context.Context, name string) error {
	if err := l.inner.Lock(ctx, name); err != nil {
		return err
	}
	l.mu.Lock()
	l.locks++
	l.names = append(l.names, name)
	l.mu.Unlock()
	return nil
}

func (l *countingLocker) Unlock(ctx context.Context, name string) error {
	l.mu.Lock()
	l.unlocks++
	l.mu.Unlock()
	return l.inner.Unlock(ctx, name)
}
