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
	"strings"
	"unicode/utf8"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/chunker"
	"github.com/poiesic/transcriptdb/core"
)

// chunkSeparator joins cleaned chunks back into one transcript.
const chunkSeparator = "\n\n"

// Enricher cleans an interview's text and extracts its structured fields.
type Enricher struct {
	extractor      ai.FieldExtractor
	cleaner        ai.Cleaner
	splitter       *chunker.Splitter
	workers        int
	prefixSize     int
	minCleanLength int
	logger         *slog.Logger
}

// NewEnricher creates an Enricher using the sizes and pool width in config.
func NewEnricher(extractor ai.FieldExtractor, cleaner ai.Cleaner, config *Config, logger *slog.Logger) *Enricher {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		extractor:      extractor,
		cleaner:        cleaner,
		splitter:       chunker.New(config.CleaningChunkSize),
		workers:        config.CleaningWorkers,
		prefixSize:     config.ExtractionPrefixSize,
		minCleanLength: config.MinCleanLength,
		logger:         logger.With("component", "enricher"),
	}
}

// with returns a copy of e that logs through logger.
func (e *Enricher) with(logger *slog.Logger) *Enricher {
	c := *e
	c.logger = logger
	return &c
}

// ExtractFields identifies the company and interviewee from the start of an
// interview. Any failure yields a degraded outcome holding Unknown fields.
func (e *Enricher) ExtractFields(ctx context.Context, text string) core.Outcome[core.InterviewFields] {
	if e.extractor == nil {
		return core.Degraded(core.UnknownFields(), ErrAIProviderRequired)
	}
	got, err := e.extractor.ExtractFields(ctx, prefixChars(text, e.prefixSize))
	if err != nil {
		return core.Degraded(core.UnknownFields(), err)
	}
	if got == nil {
		return core.Degraded(core.UnknownFields(), ai.ErrEmptyResponse)
	}
	return core.Ok(core.InterviewFields{Company: got.Company, Interviewee: got.Interviewee}.Normalize())
}

// CleanChunk normalizes one chunk of raw transcript text. Chunks too short to
// be worth a call pass through unchanged; a failed or empty response yields a
// degraded outcome holding the original chunk.
func (e *Enricher) CleanChunk(ctx context.Context, chunk string) core.Outcome[string] {
	if utf8.RuneCountInString(strings.TrimSpace(chunk)) < e.minCleanLength {
		return core.Ok(chunk)
	}
	if e.cleaner == nil {
		return core.Degraded(chunk, ErrAIProviderRequired)
	}
	cleaned, err := e.cleaner.Clean(ctx, chunk)
	if err != nil {
		return core.Degraded(chunk, err)
	}
	if strings.TrimSpace(cleaned) == "" {
		return core.Degraded(chunk, ai.ErrEmptyResponse)
	}
	return core.Ok(cleaned)
}

// Enrich extracts the fields of one interview and cleans its text chunk by
// chunk on a bounded pool. Cleaned chunks are reassembled in their original
// order. A failing chunk falls back to its raw text and never affects its
// siblings; an error is returned only when the pool cannot run.
func (e *Enricher) Enrich(ctx context.Context, index int, text string) (*core.EnrichedInterview, error) {
	logger := e.logger.With("interview", index)

	fields := e.ExtractFields(ctx, text)
	if !fields.IsOk() {
		logger.Warn("field extraction failed, using defaults", "err", fields.Err)
	}

	chunks := e.splitter.Split(text)
	cleaned, err := mapBounded(ctx, e.workers, chunks,
		func(ctx context.Context, _ int, chunk string) core.Outcome[string] {
			return e.CleanChunk(ctx, chunk)
		},
		func(_ int, chunk string, cause any) core.Outcome[string] {
			return core.Degraded(chunk, fmt.Errorf("panic while cleaning: %v", cause))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cleaning interview %d: %w", index, err)
	}

	parts := make([]string, len(cleaned))
	degraded := 0
	for i, o := range cleaned {
		if !o.IsOk() {
			degraded++
			logger.Warn("chunk cleaning failed, keeping original text", "chunk", i, "err", o.Err)
		}
		parts[i] = o.Value
	}

	logger.Debug("enriched interview",
		"company", fields.Value.Company,
		"interviewee", fields.Value.Interviewee,
		"chunks", len(chunks),
		"degraded", degraded)

	return &core.EnrichedInterview{
		Index:          index,
		Fields:         fields.Value,
		Transcript:     strings.Join(parts, chunkSeparator),
		Chunks:         len(chunks),
		DegradedChunks: degraded,
	}, nil
}
