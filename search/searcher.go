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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/storage"
)

const (
	// candidateFactor widens the vector query so re-ranking has room to reorder.
	candidateFactor = 3

	fieldBoost    = 1.5
	verbatimBoost = 0.3
)

// Searcher ranks transcript records against a free-text query.
type Searcher struct {
	store     storage.VectorStore
	embedder  ai.Embedder
	namespace string
	threshold float32
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithNamespace sets the namespace to search.
func WithNamespace(namespace string) Option {
	return func(s *Searcher) error {
		if err := core.ValidateNamespace(namespace); err != nil {
			return err
		}
		s.namespace = namespace
		return nil
	}
}

// WithThreshold drops candidates whose similarity is below threshold.
// Default is 0 (keep everything the store returns).
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.VectorStore, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		store:     store,
		embedder:  provider.Embedder(),
		namespace: core.DefaultNamespace,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// FindSimilar searches for transcript records similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.Match, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for transcript records similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.Match, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxHits < 1 {
		return []*core.Match{}, nil
	}

	monitor.Start(query)

	// 1. Semantic candidates
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := s.store.Query(ctx, s.namespace, embedding, maxHits*candidateFactor)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}

	candidates := make([]*core.Match, 0, len(matches))
	for _, m := range matches {
		if m == nil || m.Record == nil || m.Score < s.threshold {
			continue
		}
		candidates = append(candidates, m)
	}
	monitor.AfterSemanticSearch(candidates)

	// 2. Re-rank
	results := make([]*core.Match, 0, len(candidates))
	for _, m := range candidates {
		score := m.Score

		for _, field := range []string{core.MetaCompany, core.MetaInterviewee} {
			if mentions(query, m.Record.MetaString(field)) {
				score *= fieldBoost
				monitor.FieldHit(m.Record, field)
				break
			}
		}

		if containsAllQueryWords(m.Record.MetaString(core.MetaTranscript), query) {
			score += verbatimBoost
			monitor.VerbatimHit(m.Record)
		}

		results = append(results, &core.Match{Record: m.Record, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "candidates", len(candidates), "results", len(results))
	return results, nil
}
