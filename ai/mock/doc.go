// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Segmenter,
// ai.FieldExtractor, ai.Cleaner and ai.AIProvider for use in unit tests. The
// mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior. All mocks are safe for
// concurrent use once their function fields are set.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	cleaner := mock.NewMockCleaner()
//	cleaner.CleanFunc = func(ctx context.Context, text string) (string, error) {
//	    return "", errors.New("unavailable")
//	}
//
//	// Check call counts
//	count := cleaner.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockSegmenter: Reports a single interview covering the whole document
//   - MockFieldExtractor: Reads "Company:" and "Interviewee:" labels from the text
//   - MockCleaner: Returns the text unchanged
//   - MockProvider: Aggregates the mocks above
package mock
