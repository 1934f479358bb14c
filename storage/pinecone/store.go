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

package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/storage"
)

// Store is a minimal REST client for one Pinecone index.
type Store struct {
	cfg       Config
	host      string
	dimension int
	client    *http.Client
	logger    *slog.Logger
}

var _ storage.VectorStore = (*Store)(nil)

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type indexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
}

// NewStore creates a Store, resolving the index host through the control
// plane when cfg.Host is empty.
//
// Returns storage.VectorStore interface to enforce abstraction.
func NewStore(ctx context.Context, cfg Config) (storage.VectorStore, error) {
	return newStore(ctx, cfg)
}

func newStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()

	s := &Store{
		cfg:    cfg,
		host:   cfg.Host,
		client: cfg.HTTPClient,
		logger: slog.Default().With("component", "pinecone-store"),
	}

	if cfg.IndexName != "" {
		desc, err := s.describeIndex(ctx, cfg.IndexName)
		if err != nil {
			if s.host == "" {
				return nil, fmt.Errorf("resolve index %q: %w", cfg.IndexName, err)
			}
			s.logger.Warn("could not describe index, dimension unchecked", "index", cfg.IndexName, "err", err)
		} else {
			s.dimension = desc.Dimension
			if s.host == "" {
				s.host = normalizeHost(desc.Host)
			}
		}
	}

	s.logger.Debug("pinecone store ready", "host", s.host, "dimension", s.dimension)
	return s, nil
}

// Host returns the resolved data plane URL.
func (s *Store) Host() string {
	return s.host
}

// Dimension returns the index dimension, or 0 if unknown.
func (s *Store) Dimension() int {
	return s.dimension
}

func (s *Store) describeIndex(ctx context.Context, name string) (*indexDescription, error) {
	var desc indexDescription
	endpoint := s.cfg.ControlPlaneURL + "/indexes/" + url.PathEscape(name)
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &desc); err != nil {
		return nil, err
	}
	if desc.Host == "" {
		return nil, fmt.Errorf("%w: index %q has no host", storage.ErrRemote, name)
	}
	return &desc, nil
}

// Upsert writes records into namespace with a single request.
func (s *Store) Upsert(ctx context.Context, namespace string, records ...*core.Record) error {
	if err := core.ValidateNamespace(namespace); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	vectors := make([]vector, len(records))
	for i, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
		if s.dimension > 0 && len(record.Values) != s.dimension {
			return fmt.Errorf("%w: record %s has %d values, index has %d",
				storage.ErrDimensionMismatch, record.ID, len(record.Values), s.dimension)
		}
		vectors[i] = vector{ID: record.ID, Values: record.Values, Metadata: record.Metadata}
	}

	body := map[string]any{
		"vectors":   vectors,
		"namespace": namespace,
	}
	var resp struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := s.do(ctx, http.MethodPost, s.host+"/vectors/upsert", body, &resp); err != nil {
		return err
	}

	s.logger.Debug("upserted records", "namespace", namespace, "count", resp.UpsertedCount)
	return nil
}

// Fetch retrieves records by id, in the order requested. Missing ids are skipped.
func (s *Store) Fetch(ctx context.Context, namespace string, ids ...string) ([]*core.Record, error) {
	if err := core.ValidateNamespace(namespace); err != nil {
		return nil, err
	}

	records := make([]*core.Record, 0, len(ids))
	for start := 0; start < len(ids); start += fetchBatchSize {
		batch := ids[start:min(start+fetchBatchSize, len(ids))]

		query := url.Values{}
		query.Set("namespace", namespace)
		for _, id := range batch {
			query.Add("ids", id)
		}

		var resp struct {
			Vectors map[string]vector `json:"vectors"`
		}
		if err := s.do(ctx, http.MethodGet, s.host+"/vectors/fetch?"+query.Encode(), nil, &resp); err != nil {
			return nil, err
		}

		for _, id := range batch {
			v, ok := resp.Vectors[id]
			if !ok {
				continue
			}
			records = append(records, &core.Record{
				ID:       v.ID,
				Values:   v.Values,
				Metadata: storage.NormalizeMetadata(v.Metadata),
			})
		}
	}
	return records, nil
}

// DeleteNamespace removes every record in namespace.
// A namespace that does not exist is not an error.
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := core.ValidateNamespace(namespace); err != nil {
		return err
	}

	body := map[string]any{
		"deleteAll": true,
		"namespace": namespace,
	}
	err := s.do(ctx, http.MethodPost, s.host+"/vectors/delete", body, nil)
	if statusOf(err) == http.StatusNotFound {
		s.logger.Debug("namespace not found", "namespace", namespace)
		return nil
	}
	return err
}

// Query returns up to topK records most similar to vector.
func (s *Store) Query(ctx context.Context, namespace string, values []float32, topK int) ([]*core.Match, error) {
	if err := core.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	if topK < 1 || len(values) == 0 {
		return nil, storage.ErrInvalidQuery
	}
	if s.dimension > 0 && len(values) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d",
			storage.ErrDimensionMismatch, len(values), s.dimension)
	}

	body := map[string]any{
		"namespace":       namespace,
		"vector":          values,
		"topK":            topK,
		"includeValues":   true,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			vector
			Score float32 `json:"score"`
		} `json:"matches"`
	}
	if err := s.do(ctx, http.MethodPost, s.host+"/query", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]*core.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, &core.Match{
			Record: &core.Record{
				ID:       m.ID,
				Values:   m.Values,
				Metadata: storage.NormalizeMetadata(m.Metadata),
			},
			Score: m.Score,
		})
	}
	return matches, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// statusError carries the HTTP status of a failed request.
type statusError struct {
	method string
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.method, e.url, e.status, http.StatusText(e.status), e.body)
}

func (e *statusError) Unwrap() error {
	return storage.ErrRemote
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func (s *Store) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", s.cfg.APIKey)
	req.Header.Set("X-Pinecone-API-Version", s.cfg.APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &statusError{method: method, url: req.URL.Path, status: resp.StatusCode, body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", storage.ErrSerializationFailed, req.URL.Path, err)
	}
	return nil
}
