package mock

import (
	"bufio"
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/transcriptdb/ai"
)

// MockSegmenter is a test double for ai.Segmenter.
type MockSegmenter struct {
	// SegmentFunc is called by Segment if set.
	// If nil, a single interview spanning totalChars is reported.
	SegmentFunc func(ctx context.Context, sample string, totalChars int) (*ai.Segmentation, error)

	callCount atomic.Int64
}

// NewMockSegmenter creates a mock segmenter with default behavior.
func NewMockSegmenter() *MockSegmenter {
	return &MockSegmenter{}
}

// Segment reports interview boundaries.
func (m *MockSegmenter) Segment(ctx context.Context, sample string, totalChars int) (*ai.Segmentation, error) {
	m.callCount.Add(1)

	if m.SegmentFunc != nil {
		return m.SegmentFunc(ctx, sample, totalChars)
	}
	return &ai.Segmentation{
		Multiple:   false,
		Interviews: []ai.CharRange{{Start: 0, End: totalChars}},
	}, nil
}

// CallCount returns the number of times Segment was called.
func (m *MockSegmenter) CallCount() int {
	return int(m.callCount.Load())
}

// MockFieldExtractor is a test double for ai.FieldExtractor.
type MockFieldExtractor struct {
	// ExtractFieldsFunc is called by ExtractFields if set.
	// If nil, "Company:" and "Interviewee:" (or "Candidate:") lines are read from the text.
	ExtractFieldsFunc func(ctx context.Context, text string) (*ai.ExtractedFields, error)

	callCount atomic.Int64
}

// NewMockFieldExtractor creates a mock field extractor with default behavior.
func NewMockFieldExtractor() *MockFieldExtractor {
	return &MockFieldExtractor{}
}

// ExtractFields extracts labeled fields from text.
func (m *MockFieldExtractor) ExtractFields(ctx context.Context, text string) (*ai.ExtractedFields, error) {
	m.callCount.Add(1)

	if m.ExtractFieldsFunc != nil {
		return m.ExtractFieldsFunc(ctx, text)
	}

	fields := &ai.ExtractedFields{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(line, "Company:"); ok && fields.Company == "" {
			fields.Company = strings.TrimSpace(v)
		}
		for _, label := range []string{"Interviewee:", "Candidate:"} {
			if v, ok := strings.CutPrefix(line, label); ok && fields.Interviewee == "" {
				fields.Interviewee = strings.TrimSpace(v)
			}
		}
	}
	return fields, nil
}

// CallCount returns the number of times ExtractFields was called.
func (m *MockFieldExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// MockCleaner is a test double for ai.Cleaner.
type MockCleaner struct {
	// CleanFunc is called by Clean if set.
	// If nil, the text is returned unchanged.
	CleanFunc func(ctx context.Context, text string) (string, error)

	callCount atomic.Int64
}

// NewMockCleaner creates a mock cleaner with default behavior.
func NewMockCleaner() *MockCleaner {
	return &MockCleaner{}
}

// Clean returns the cleaned text.
func (m *MockCleaner) Clean(ctx context.Context, text string) (string, error) {
	m.callCount.Add(1)

	if m.CleanFunc != nil {
		return m.CleanFunc(ctx, text)
	}
	return text, nil
}

// CallCount returns the number of times Clean was called.
func (m *MockCleaner) CallCount() int {
	return int(m.callCount.Load())
}
