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

package openai

import (
	"log/slog"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// Every service it hands out shares one request limiter.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	segmenter *Segmenter
	extractor *FieldExtractor
	cleaner   *Cleaner
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	chatClient, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	embedClient, err := newEmbeddingClient(config)
	if err != nil {
		return nil, err
	}

	return newProvider(config, chatClient, embedClient), nil
}

// newProvider wires the services around already constructed clients.
func newProvider(config *ai.Config, chatClient llms.Model, embedClient embeddings.Embedder) *Provider {
	lim := newLimiter(config.RequestsPerSecond)
	c := &chat{
		client:      chatClient,
		limiter:     lim,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-chat"),
	}

	return &Provider{
		config:    config,
		embedder:  newEmbedder(embedClient, lim, config.EmbeddingDimension),
		segmenter: &Segmenter{chat: c},
		extractor: &FieldExtractor{chat: c},
		cleaner:   &Cleaner{chat: c, maxTokens: config.MaxCleanTokens},
		logger:    slog.Default().With("component", "openai-provider"),
	}
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Segmenter returns the interview boundary detection service.
func (p *Provider) Segmenter() ai.Segmenter {
	return p.segmenter
}

// FieldExtractor returns the structured field extraction service.
func (p *Provider) FieldExtractor() ai.FieldExtractor {
	return p.extractor
}

// Cleaner returns the transcript cleaning service.
func (p *Provider) Cleaner() ai.Cleaner {
	return p.cleaner
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
