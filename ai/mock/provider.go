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

package mock

import "github.com/poiesic/transcriptdb/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock service instances.
type MockProvider struct {
	embedder  *MockEmbedder
	segmenter *MockSegmenter
	extractor *MockFieldExtractor
	cleaner   *MockCleaner
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns the concrete type so tests can reach the individual mocks through
// GetMockEmbedder, GetMockSegmenter, GetMockExtractor and GetMockCleaner.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		segmenter: NewMockSegmenter(),
		extractor: NewMockFieldExtractor(),
		cleaner:   NewMockCleaner(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Segmenter returns the mock segmenter.
func (p *MockProvider) Segmenter() ai.Segmenter {
	return p.segmenter
}

// FieldExtractor returns the mock field extractor.
func (p *MockProvider) FieldExtractor() ai.FieldExtractor {
	return p.extractor
}

// Cleaner returns the mock cleaner.
func (p *MockProvider) Cleaner() ai.Cleaner {
	return p.cleaner
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockSegmenter returns the underlying mock segmenter for test assertions.
func (p *MockProvider) GetMockSegmenter() *MockSegmenter {
	return p.segmenter
}

// GetMockExtractor returns the underlying mock field extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockFieldExtractor {
	return p.extractor
}

// GetMockCleaner returns the underlying mock cleaner for test assertions.
func (p *MockProvider) GetMockCleaner() *MockCleaner {
	return p.cleaner
}
