package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CharRange is a half-open range of character (not byte) offsets as reported
// by a language service.
type CharRange struct {
	Start int `json:"start_char"`
	End   int `json:"end_char"`
}

// Segmentation is a language service's view of how many interviews a
// document holds and where they are.
type Segmentation struct {
	Multiple   bool        `json:"has_multiple_interviews"`
	Interviews []CharRange `json:"interviews"`
}

// Segmenter detects interview boundaries in a document sample.
// Implementations must be thread-safe for concurrent use.
type Segmenter interface {
	// Segment analyzes sample, the leading part of a document whose full
	// length is totalChars characters, and reports interview ranges.
	Segment(ctx context.Context, sample string, totalChars int) (*Segmentation, error)
}

// ExtractedFields holds the structured fields a language service found in a
// transcript excerpt. Either field may be empty.
type ExtractedFields struct {
	Company     string `json:"company"`
	Interviewee string `json:"interviewee"`
}

// FieldExtractor extracts the company and interviewee from a transcript excerpt.
// Implementations must be thread-safe for concurrent use.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (*ExtractedFields, error)
}

// Cleaner normalizes a raw transcript chunk (spacing, whitespace) while
// preserving the conversation structure.
// Implementations must be thread-safe for concurrent use.
type Cleaner interface {
	Clean(ctx context.Context, text string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// All services returned by a provider share its configuration and rate limit.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Segmenter returns the interview boundary detection service.
	Segmenter() Segmenter

	// FieldExtractor returns the structured field extraction service.
	FieldExtractor() FieldExtractor

	// Cleaner returns the transcript cleaning service.
	Cleaner() Cleaner

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
