package ingestion

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/core"
)

// Detector finds interview boundaries within a document.
type Detector struct {
	segmenter  ai.Segmenter
	sampleSize int
	logger     *slog.Logger
}

// NewDetector creates a boundary detector that sends the first sampleSize
// characters of a document to segmenter.
func NewDetector(segmenter ai.Segmenter, sampleSize int, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		segmenter:  segmenter,
		sampleSize: sampleSize,
		logger:     logger.With("component", "detector"),
	}
}

func (d *Detector) with(logger *slog.Logger) *Detector {
	c := *d
	c.logger = logger
	return &c
}

// Detect returns the byte spans of the interviews in text, ordered and
// non-overlapping. It never fails: when the service errors, returns malformed
// data, or reports a single interview, the whole text is one span.
func (d *Detector) Detect(ctx context.Context, text string) []core.Span {
	whole := []core.Span{{Start: 0, End: len(text)}}
	if d.segmenter == nil || strings.TrimSpace(text) == "" {
		return whole
	}

	totalChars := utf8.RuneCountInString(text)
	seg, err := d.segmenter.Segment(ctx, prefixChars(text, d.sampleSize), totalChars)
	if err != nil {
		d.logger.Warn("boundary detection failed, treating document as one interview", "err", err)
		return whole
	}
	if seg == nil || !seg.Multiple || len(seg.Interviews) == 0 {
		return whole
	}

	spans := spansFromRanges(text, seg.Interviews)
	if len(spans) == 0 {
		d.logger.Warn("boundary detection returned no usable ranges, treating document as one interview",
			"ranges", len(seg.Interviews))
		return whole
	}
	d.logger.Debug("detected interviews", "count", len(spans))
	return spans
}

// spansFromRanges converts character ranges to byte spans clamped to text,
// drops empty ones, sorts them and trims overlaps.
func spansFromRanges(text string, ranges []ai.CharRange) []core.Span {
	spans := make([]core.Span, 0, len(ranges))
	for _, r := range ranges {
		s := core.Span{Start: byteOffset(text, r.Start), End: byteOffset(text, r.End)}
		if s.End > s.Start {
			spans = append(spans, s)
		}
	}
	slices.SortStableFunc(spans, func(a, b core.Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	out := spans[:0]
	prevEnd := 0
	for _, s := range spans {
		if s.Start < prevEnd {
			s.Start = prevEnd
		}
		if s.End <= s.Start {
			continue
		}
		out = append(out, s)
		prevEnd = s.End
	}
	return out
}

// byteOffset converts a character offset to a byte offset, clamped to [0, len(text)].
func byteOffset(text string, chars int) int {
	if chars <= 0 {
		return 0
	}
	n := 0
	for i := range text {
		if n == chars {
			return i
		}
		n++
	}
	return len(text)
}

// prefixChars returns at most n leading characters of text.
func prefixChars(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(text) <= n {
		return text
	}
	return text[:byteOffset(text, n)]
}

// SelectInterviews returns the trimmed text of every span longer than minLen
// characters. When no span qualifies but the whole trimmed document does,
// the whole document is returned as a single interview.
func SelectInterviews(text string, spans []core.Span, minLen int) []string {
	var out []string
	for _, s := range spans {
		if core.ValidateSpan(s, len(text)) != nil {
			continue
		}
		t := strings.TrimSpace(text[s.Start:s.End])
		if utf8.RuneCountInString(t) > minLen {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		return out
	}
	if whole := strings.TrimSpace(text); utf8.RuneCountInString(whole) > minLen {
		return []string{whole}
	}
	return nil
}
