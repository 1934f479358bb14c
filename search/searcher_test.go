package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/transcriptdb/ai/mock"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptRecord(id, company, interviewee, transcript string, vector []float32) *core.Record {
	meta := core.TranscriptMetadata{
		Fields:      core.InterviewFields{Company: company, Interviewee: interviewee},
		Transcript:  transcript,
		TotalChunks: 1,
		Source:      core.Source{Name: id + ".pdf", Path: "/data/" + id + ".pdf"},
	}
	return &core.Record{ID: id, Values: vector, Metadata: meta.Map()}
}

func fixedQueryProvider(vector []float32) *mock.MockProvider {
	provider := mock.NewMockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return provider
}

func seededStore(t *testing.T, records ...*core.Record) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	if len(records) > 0 {
		require.NoError(t, store.Upsert(context.Background(), core.DefaultNamespace, records...))
	}
	return store
}

type recordingMonitor struct {
	started   string
	semantic  int
	fieldHits []string
	verbatim  []string
	finished  int
}

func (m *recordingMonitor) Start(query string) {
	m.started = query
}

func (m *recordingMonitor) AfterSemanticSearch(matches []*core.Match) {
	m.semantic = len(matches)
}

func (m *recordingMonitor) FieldHit(record *core.Record, field string) {
	m.fieldHits = append(m.fieldHits, record.ID+":"+field)
}

func (m *recordingMonitor) VerbatimHit(record *core.Record) {
	m.verbatim = append(m.verbatim, record.ID)
}

func (m *recordingMonitor) Finish(results []*core.Match) {
	m.finished = len(results)
}

func TestNewSearcher(t *testing.T) {
	store := seededStore(t)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
		assert.Equal(t, core.DefaultNamespace, searcher.namespace)
	})

	t.Run("with options", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider,
			WithLogger(slog.Default()), WithNamespace("other"), WithThreshold(0.5))
		require.NoError(t, err)
		assert.Equal(t, "other", searcher.namespace)
		assert.Equal(t, float32(0.5), searcher.threshold)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(store, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("invalid namespace", func(t *testing.T) {
		_, err := NewSearcher(store, provider, WithNamespace("a/b"))
		assert.ErrorIs(t, err, core.ErrInvalidNamespace)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewSearcher(nil, provider)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(store, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestFindSimilar_EmptyStore(t *testing.T) {
	searcher, err := NewSearcher(seededStore(t), fixedQueryProvider([]float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "pricing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_SemanticOrder(t *testing.T) {
	store := seededStore(t,
		transcriptRecord("near", "Acme", "Jane", "we discussed onboarding", []float32{0.9, 0.1, 0}),
		transcriptRecord("mid", "Globex", "John", "we discussed billing", []float32{0.6, 0.4, 0}),
		transcriptRecord("far", "Initech", "Bob", "we discussed lunch", []float32{0, 0.1, 0.9}),
	)
	searcher, err := NewSearcher(store, fixedQueryProvider([]float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "customer feedback", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Record.ID)
	assert.Equal(t, "mid", results[1].Record.ID)
}

func TestFindSimilar_FieldAndVerbatimBoosts(t *testing.T) {
	store := seededStore(t,
		transcriptRecord("semantic", "Initech", "Bob", "general chatter", []float32{1, 0, 0}),
		transcriptRecord("company", "Acme Corp", "Jane", "general chatter", []float32{0.8, 0.6, 0}),
		transcriptRecord("verbatim", "Globex", "John", "the onboarding flow was slow", []float32{0.8, 0.6, 0}),
	)
	searcher, err := NewSearcher(store, fixedQueryProvider([]float32{1, 0, 0}))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), "What did Acme Corp say about onboarding?", 3, monitor)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// company: 0.8 * 1.5 = 1.2; semantic: 1.0; verbatim only matches if every query word is present.
	assert.Equal(t, "company", results[0].Record.ID)
	assert.InDelta(t, 1.2, results[0].Score, 1e-5)
	assert.Equal(t, "semantic", results[1].Record.ID)

	assert.Equal(t, "What did Acme Corp say about onboarding?", monitor.started)
	assert.Equal(t, 3, monitor.semantic)
	assert.Equal(t, []string{"company:" + core.MetaCompany}, monitor.fieldHits)
	assert.Empty(t, monitor.verbatim)
	assert.Equal(t, 3, monitor.finished)
}

func TestFindSimilar_VerbatimBoost(t *testing.T) {
	store := seededStore(t,
		transcriptRecord("semantic", "Initech", "Bob", "general chatter", []float32{1, 0, 0}),
		transcriptRecord("verbatim", "Globex", "John", "The onboarding flow was slow.", []float32{0.8, 0.6, 0}),
	)
	searcher, err := NewSearcher(store, fixedQueryProvider([]float32{1, 0, 0}))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), "onboarding slow", 2, monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "verbatim", results[0].Record.ID)
	assert.InDelta(t, 1.1, results[0].Score, 1e-5)
	assert.Equal(t, []string{"verbatim"}, monitor.verbatim)
}

func TestFindSimilar_UnknownFieldsNeverMatch(t *testing.T) {
	store := seededStore(t,
		transcriptRecord("unknown", core.Unknown, core.Unknown, "text", []float32{1, 0, 0}),
	)
	searcher, err := NewSearcher(store, fixedQueryProvider([]float32{1, 0, 0}))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(context.Background(), "unknown company", 1, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, monitor.fieldHits)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestFindSimilar_Threshold(t *testing.T) {
	store := seededStore(t,
		transcriptRecord("near", "Acme", "Jane", "a", []float32{1, 0, 0}),
		transcriptRecord("far", "Globex", "John", "b", []float32{0, 1, 0}),
	)
	searcher, err := NewSearcher(store, fixedQueryProvider([]float32{1, 0, 0}), WithThreshold(0.5))
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "anything", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].Record.ID)
}

func TestFindSimilar_Errors(t *testing.T) {
	provider := mock.NewMockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	searcher, err := NewSearcher(seededStore(t), provider)
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = searcher.FindSimilar(context.Background(), "pricing", 5)
	assert.ErrorContains(t, err, "embedding service down")

	results, err := searcher.FindSimilar(context.Background(), "pricing", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTokenizeAndFilter(t *testing.T) {
	assert.Equal(t, []string{"acme", "onboarding"}, tokenizeAndFilter("What did Acme say about the onboarding?"))
	assert.Empty(t, tokenizeAndFilter("the a an"))
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("interview with Jane Doe", "Jane Doe"))
	assert.False(t, mentions("interview with Jane", "Jane Doe"))
	assert.False(t, mentions("unknown", core.Unknown))
	assert.False(t, mentions("anything", ""))
}
