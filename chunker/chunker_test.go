package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	s := New(100)
	chunks := s.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplit_ShortNonASCIITextIsSingleChunk(t *testing.T) {
	text := strings.Repeat("é", 5000) // 10000 bytes, 5000 characters
	ranges := New(5000).Ranges(text)
	require.Len(t, ranges, 1)
	assert.Equal(t, Range{Start: 0, End: len(text)}, ranges[0])

	chunks := New(5000).Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_SizeCountsCharacters(t *testing.T) {
	text := strings.Repeat("é", 12000)
	chunks := Split(text, DefaultEmbeddingSize)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.Equal(t, DefaultEmbeddingSize, utf8.RuneCountInString(c))
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	s := New(10)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n\t  "))
	assert.Empty(t, s.Ranges(""))
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	text := "First sentence. Second sentence.\n\nThird paragraph is here. And more text follows it."
	s := New(50)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "First sentence. Second sentence.", chunks[0])
}

func TestSplit_FallsBackToSentenceBreak(t *testing.T) {
	text := "One short sentence. Another one? Yes! Then a long tail without any punctuation at all"
	s := New(40)

	ranges := s.Ranges(text)
	require.NotEmpty(t, ranges)
	// Window [0,40) holds ". " at 18, "? " at 31 and "! " at 36; the last one wins.
	assert.Equal(t, "One short sentence. Another one? Yes! ", text[ranges[0].Start:ranges[0].End])
}

func TestSplit_HardCutWithoutBreaks(t *testing.T) {
	text := strings.Repeat("a", 25)
	ranges := New(10).Ranges(text)

	require.Len(t, ranges, 3)
	assert.Equal(t, Range{Start: 0, End: 10}, ranges[0])
	assert.Equal(t, Range{Start: 10, End: 20}, ranges[1])
	assert.Equal(t, Range{Start: 20, End: 25}, ranges[2])
}

func TestSplit_BreakAtWindowStartIgnored(t *testing.T) {
	// A paragraph break at offset 0 of a window must not produce an empty chunk.
	text := "\n\n" + strings.Repeat("b", 20)
	ranges := New(10).Ranges(text)
	for _, r := range ranges {
		assert.Greater(t, r.End, r.Start)
	}
	assertPartition(t, text, ranges)
}

func TestSplit_LineBreakMode(t *testing.T) {
	text := "line one without stops\nline two without stops\nline three"

	plain := New(30).Ranges(text)
	withLines := New(30, WithLineBreaks()).Ranges(text)

	require.NotEmpty(t, plain)
	require.NotEmpty(t, withLines)
	assert.Equal(t, Range{Start: 0, End: 30}, plain[0], "hard cut without line-break mode")
	assert.Equal(t, "line one without stops\n", text[withLines[0].Start:withLines[0].End])
}

func TestSplit_HardCutRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 40) // 2 bytes per rune
	ranges := New(7).Ranges(text)

	assertPartition(t, text, ranges)
	for _, r := range ranges {
		assert.True(t, utf8.ValidString(text[r.Start:r.End]), "range %v splits a rune", r)
		assert.LessOrEqual(t, utf8.RuneCountInString(text[r.Start:r.End]), 7)
	}
}

func TestSplit_MultiByteHardCut(t *testing.T) {
	text := strings.Repeat("世", 5) // 3 bytes per rune
	ranges := New(2).Ranges(text)

	assertPartition(t, text, ranges)
	assert.Equal(t, []Range{{0, 6}, {6, 12}, {12, 15}}, ranges)
}

func TestSplit_ChunksAreTrimmedAndNonEmpty(t *testing.T) {
	text := "Alpha beta gamma.   \n\n   \n\n Delta epsilon zeta. Eta theta iota."
	for _, chunk := range New(20).Split(text) {
		assert.NotEmpty(t, chunk)
		assert.Equal(t, strings.TrimSpace(chunk), chunk)
	}
}

func TestRanges_CoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pieces := []string{"word", " ", ". ", "? ", "! ", "\n", "\n\n", "é", "世界", "x"}

	for i := 0; i < 200; i++ {
		var sb strings.Builder
		n := rng.Intn(400)
		for j := 0; j < n; j++ {
			sb.WriteString(pieces[rng.Intn(len(pieces))])
		}
		text := sb.String()
		size := 1 + rng.Intn(60)

		for _, s := range []*Splitter{New(size), New(size, WithLineBreaks())} {
			ranges := s.Ranges(text)
			assertPartition(t, text, ranges)

			for _, chunk := range s.Split(text) {
				assert.NotEmpty(t, chunk)
				assert.LessOrEqual(t, utf8.RuneCountInString(chunk), size)
			}
		}
	}
}

func TestPackageSplit(t *testing.T) {
	text := strings.Repeat("Sentence here. ", 10)
	assert.Equal(t, New(30).Split(text), Split(text, 30))
}

func TestNew_InvalidSizeUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultCleaningSize, New(0).Size())
	assert.Equal(t, DefaultCleaningSize, New(-5).Size())
	assert.Equal(t, 42, New(42).Size())
}

func assertPartition(t *testing.T, text string, ranges []Range) {
	t.Helper()
	var sb strings.Builder
	prev := 0
	for _, r := range ranges {
		require.Equal(t, prev, r.Start, "ranges must be contiguous")
		require.Greater(t, r.End, r.Start, "ranges must be non-empty")
		sb.WriteString(text[r.Start:r.End])
		prev = r.End
	}
	require.Equal(t, len(text), prev)
	require.Equal(t, text, sb.String())
}
