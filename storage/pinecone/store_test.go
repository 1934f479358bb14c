package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex is an in-memory stand-in for a Pinecone index and control plane.
type fakeIndex struct {
	mu         sync.Mutex
	t          *testing.T
	dimension  int
	namespaces map[string]map[string]vector
	requests   []string
	upserts    int
	server     *httptest.Server
}

func newFakeIndex(t *testing.T, dimension int) *fakeIndex {
	f := &fakeIndex{t: t, dimension: dimension, namespaces: map[string]map[string]vector{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indexes/{name}", f.describe)
	mux.HandleFunc("POST /vectors/upsert", f.upsert)
	mux.HandleFunc("GET /vectors/fetch", f.fetch)
	mux.HandleFunc("POST /vectors/delete", f.delete)
	mux.HandleFunc("POST /query", f.query)
	f.server = httptest.NewServer(f.authenticated(mux))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIndex) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "pc-test" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		assert.Equal(f.t, DefaultAPIVersion, r.Header.Get("X-Pinecone-API-Version"))
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeIndex) describe(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("name") != "interviews" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	host := strings.TrimPrefix(f.server.URL, "http://")
	writeJSON(w, indexDescription{Name: "interviews", Host: host, Dimension: f.dimension})
}

func (f *fakeIndex) upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vectors   []vector `json:"vectors"`
		Namespace string   `json:"namespace"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	ns := f.namespaces[req.Namespace]
	if ns == nil {
		ns = map[string]vector{}
		f.namespaces[req.Namespace] = ns
	}
	for _, v := range req.Vectors {
		ns[v.ID] = v
	}
	writeJSON(w, map[string]int{"upsertedCount": len(req.Vectors)})
}

func (f *fakeIndex) fetch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ns := f.namespaces[r.URL.Query().Get("namespace")]
	out := map[string]vector{}
	for _, id := range r.URL.Query()["ids"] {
		if v, ok := ns[id]; ok {
			out[id] = v
		}
	}
	writeJSON(w, map[string]any{"vectors": out})
}

func (f *fakeIndex) delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeleteAll bool   `json:"deleteAll"`
		Namespace string `json:"namespace"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	assert.True(f.t, req.DeleteAll)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.namespaces[req.Namespace]; !ok {
		http.Error(w, `{"code":5,"message":"Namespace not found"}`, http.StatusNotFound)
		return
	}
	delete(f.namespaces, req.Namespace)
	writeJSON(w, map[string]any{})
}

func (f *fakeIndex) query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Namespace       string    `json:"namespace"`
		Vector          []float32 `json:"vector"`
		TopK            int       `json:"topK"`
		IncludeMetadata bool      `json:"includeMetadata"`
	}
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	assert.True(f.t, req.IncludeMetadata)

	f.mu.Lock()
	defer f.mu.Unlock()
	type match struct {
		vector
		Score float32 `json:"score"`
	}
	var matches []match
	for _, v := range f.namespaces[req.Namespace] {
		var dot float32
		for i := range v.Values {
			dot += v.Values[i] * req.Vector[i]
		}
		matches = append(matches, match{vector: v, Score: dot})
	}
	// Highest score first
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].Score > matches[i].Score {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}
	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	writeJSON(w, map[string]any{"matches": matches})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func makeRecord(id string, values ...float32) *core.Record {
	meta := core.TranscriptMetadata{
		Fields:      core.InterviewFields{Company: "Acme", Interviewee: "Jane"},
		Transcript:  "excerpt " + id,
		ChunkIndex:  2,
		TotalChunks: 4,
		Source:      core.Source{Name: "a.pdf", Path: "/data/a.pdf"},
	}
	return &core.Record{ID: id, Values: values, Metadata: meta.Map()}
}

func newTestStore(t *testing.T, f *fakeIndex) *Store {
	t.Helper()
	s, err := newStore(context.Background(), Config{
		APIKey:          "pc-test",
		IndexName:       "interviews",
		ControlPlaneURL: f.server.URL,
		HTTPClient:      f.server.Client(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_ResolvesHost(t *testing.T) {
	f := newFakeIndex(t, 3)
	s := newTestStore(t, f)

	// The control plane reports a bare host, which gets an https scheme.
	assert.Equal(t, "https://"+strings.TrimPrefix(f.server.URL, "http://"), s.Host())
	assert.Equal(t, 3, s.Dimension())
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(context.Background(), Config{IndexName: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APIKey")

	_, err = NewStore(context.Background(), Config{APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IndexName")
}

func TestNewStore_UnknownIndex(t *testing.T) {
	f := newFakeIndex(t, 3)
	_, err := NewStore(context.Background(), Config{
		APIKey:          "pc-test",
		IndexName:       "missing",
		ControlPlaneURL: f.server.URL,
		HTTPClient:      f.server.Client(),
	})
	require.ErrorIs(t, err, storage.ErrRemote)
}

func TestNewStore_ExplicitHost(t *testing.T) {
	f := newFakeIndex(t, 3)
	s, err := NewStore(context.Background(), Config{
		APIKey:     "pc-test",
		Host:       f.server.URL + "/",
		HTTPClient: f.server.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, f.server.URL, s.(*Store).Host())
	assert.Zero(t, s.(*Store).Dimension())
}

// dataStore builds a store addressing the fake index directly over http.
func dataStore(t *testing.T, f *fakeIndex) *Store {
	t.Helper()
	s, err := newStore(context.Background(), Config{
		APIKey:          "pc-test",
		IndexName:       "interviews",
		Host:            f.server.URL,
		ControlPlaneURL: f.server.URL,
		HTTPClient:      f.server.Client(),
	})
	require.NoError(t, err)
	return s
}

func TestStore_UpsertFetchRoundTrip(t *testing.T) {
	f := newFakeIndex(t, 3)
	s := dataStore(t, f)
	ctx := context.Background()

	r1 := makeRecord("transcript-a", 1, 0, 0)
	r2 := makeRecord("transcript-b", 0, 1, 0)
	require.NoError(t, s.Upsert(ctx, "transcripts", r1, r2))
	assert.Equal(t, 1, f.upserts)

	records, err := s.Fetch(ctx, "transcripts", "transcript-b", "missing", "transcript-a")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, r2, records[0])
	assert.Equal(t, r1, records[1])

	idx, ok := records[0].MetaInt(core.MetaChunkIndex)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestStore_FetchBatchesIDs(t *testing.T) {
	f := newFakeIndex(t, 1)
	s := dataStore(t, f)

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = "id"
	}
	_, err := s.Fetch(context.Background(), "transcripts", ids...)
	require.NoError(t, err)

	var fetches int
	for _, r := range f.requests {
		if r == "GET /vectors/fetch" {
			fetches++
		}
	}
	assert.Equal(t, 3, fetches)
}

func TestStore_UpsertValidation(t *testing.T) {
	f := newFakeIndex(t, 3)
	s := dataStore(t, f)
	ctx := context.Background()

	err := s.Upsert(ctx, "transcripts", makeRecord("a", 1, 2))
	require.ErrorIs(t, err, storage.ErrDimensionMismatch)

	err = s.Upsert(ctx, "", makeRecord("a", 1, 2, 3))
	require.ErrorIs(t, err, storage.ErrInvalidNamespace)

	err = s.Upsert(ctx, "transcripts", &core.Record{Values: []float32{1, 2, 3}})
	require.ErrorIs(t, err, core.ErrEmptyID)

	require.NoError(t, s.Upsert(ctx, "transcripts"))
	assert.Zero(t, f.upserts)
}

func TestStore_DeleteNamespace(t *testing.T) {
	f := newFakeIndex(t, 2)
	s := dataStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "transcripts", makeRecord("a", 1, 0)))
	require.NoError(t, s.DeleteNamespace(ctx, "transcripts"))

	records, err := s.Fetch(ctx, "transcripts", "a")
	require.NoError(t, err)
	assert.Empty(t, records)

	// Deleting a namespace that no longer exists is tolerated
	require.NoError(t, s.DeleteNamespace(ctx, "transcripts"))
}

func TestStore_Query(t *testing.T) {
	f := newFakeIndex(t, 2)
	s := dataStore(t, f)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "transcripts",
		makeRecord("x", 1, 0),
		makeRecord("y", 0, 1),
	))

	matches, err := s.Query(ctx, "transcripts", []float32{0.9, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "x", matches[0].Record.ID)
	assert.Equal(t, "Acme", matches[0].Record.MetaString(core.MetaCompany))
	assert.InDelta(t, 0.9, matches[0].Score, 1e-6)

	_, err = s.Query(ctx, "transcripts", []float32{1}, 1)
	require.ErrorIs(t, err, storage.ErrDimensionMismatch)

	_, err = s.Query(ctx, "transcripts", []float32{1, 0}, 0)
	require.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStore_RemoteErrors(t *testing.T) {
	f := newFakeIndex(t, 2)
	s, err := newStore(context.Background(), Config{
		APIKey:     "wrong-key",
		Host:       f.server.URL,
		HTTPClient: f.server.Client(),
	})
	require.NoError(t, err)

	err = s.Upsert(context.Background(), "transcripts", makeRecord("a", 1, 0))
	require.ErrorIs(t, err, storage.ErrRemote)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "https://idx.svc.pinecone.io", normalizeHost("idx.svc.pinecone.io"))
	assert.Equal(t, "https://idx.svc.pinecone.io", normalizeHost("https://idx.svc.pinecone.io/"))
	assert.Equal(t, "http://localhost:5080", normalizeHost("http://localhost:5080"))
}
