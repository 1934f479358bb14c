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
	"fmt"
	"strings"

	"github.com/poiesic/transcriptdb/chunker"
	"github.com/poiesic/transcriptdb/core"
)

// IDStrategy selects how record identifiers are generated.
type IDStrategy string

const (
	// IDStrategyRandom gives every record a fresh random id. Re-ingesting a
	// document appends a second copy of its records.
	IDStrategyRandom IDStrategy = "random"

	// IDStrategySource derives ids from the source path and the record's
	// position, so re-ingesting a document overwrites its earlier records.
	IDStrategySource IDStrategy = "source"
)

// ParseIDStrategy parses a strategy name. The empty string means random.
func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", IDStrategyRandom:
		return IDStrategyRandom, nil
	case IDStrategySource:
		return IDStrategySource, nil
	default:
		return "", fmt.Errorf("%w: unknown id strategy %q", ErrInvalidConfig, s)
	}
}

// Config holds the tunables of an ingestion run.
type Config struct {
	// Namespace is the vector store partition records are written to
	Namespace string

	// Pattern is the glob used to discover documents in a directory
	Pattern string

	// BatchSize is the maximum number of records per upsert
	BatchSize int

	// DocumentWorkers is the maximum number of documents processed at once
	DocumentWorkers int

	// CleaningWorkers is the maximum number of chunks cleaned at once per interview
	CleaningWorkers int

	// DetectionSampleSize is the number of leading characters sent for boundary detection
	DetectionSampleSize int

	// ExtractionPrefixSize is the number of leading characters sent for field extraction
	ExtractionPrefixSize int

	// MinInterviewLength is the trimmed length an interview must exceed to be kept
	MinInterviewLength int

	// MinCleanLength is the trimmed length below which a chunk is not sent for cleaning
	MinCleanLength int

	// CleaningChunkSize is the maximum chunk size (characters) for cleaning
	CleaningChunkSize int

	// EmbeddingChunkSize is the maximum chunk size (characters) for embedding
	EmbeddingChunkSize int

	// IDStrategy selects record id generation
	IDStrategy IDStrategy

	// LockName names the critical section held while loading a document
	LockName string
}

// DefaultConfig returns a Config with the standard pipeline settings.
func DefaultConfig() *Config {
	return &Config{
		Namespace:            core.DefaultNamespace,
		Pattern:              "*.pdf",
		BatchSize:            50,
		DocumentWorkers:      4,
		CleaningWorkers:      4,
		DetectionSampleSize:  8000,
		ExtractionPrefixSize: 6000,
		MinInterviewLength:   100,
		MinCleanLength:       10,
		CleaningChunkSize:    chunker.DefaultCleaningSize,
		EmbeddingChunkSize:   chunker.DefaultEmbeddingSize,
		IDStrategy:           IDStrategyRandom,
		LockName:             "upsert",
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if err := core.ValidateNamespace(c.Namespace); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Pattern == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidConfig)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"batch size", c.BatchSize},
		{"document workers", c.DocumentWorkers},
		{"cleaning workers", c.CleaningWorkers},
		{"detection sample size", c.DetectionSampleSize},
		{"extraction prefix size", c.ExtractionPrefixSize},
		{"cleaning chunk size", c.CleaningChunkSize},
		{"embedding chunk size", c.EmbeddingChunkSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.MinInterviewLength < 0 || c.MinCleanLength < 0 {
		return fmt.Errorf("%w: minimum lengths must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseIDStrategy(string(c.IDStrategy)); err != nil {
		return err
	}
	if c.LockName == "" {
		return fmt.Errorf("%w: lock name is required", ErrInvalidConfig)
	}
	return nil
}

// NamespaceLockName is the lock held while writing to the configured
// namespace. Anything else that mutates the namespace should take it too.
func (c *Config) NamespaceLockName() string {
	return c.LockName + ":" + c.Namespace
}
