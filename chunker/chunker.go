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

package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultCleaningSize is the chunk size used when cleaning raw transcripts.
	DefaultCleaningSize = 5000

	// DefaultEmbeddingSize is the chunk size used when embedding cleaned transcripts.
	DefaultEmbeddingSize = 6000
)

const paragraphBreak = "\n\n"

var sentenceBreaks = []string{". ", "? ", "! "}

// Range is a half-open byte range [Start, End) of the split text.
// Sizes are counted in characters; offsets stay in bytes for slicing.
type Range struct {
	Start int
	End   int
}

// Splitter splits text into chunks of at most Size characters.
// A Splitter holds no state between calls and is safe for concurrent use.
type Splitter struct {
	size       int
	lineBreaks bool
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLineBreaks makes single newlines an acceptable break point when a
// window holds neither a paragraph nor a sentence break.
func WithLineBreaks() Option {
	return func(s *Splitter) {
		s.lineBreaks = true
	}
}

// New creates a Splitter with the given target size in characters.
// Sizes below 1 fall back to DefaultCleaningSize.
func New(size int, opts ...Option) *Splitter {
	if size < 1 {
		size = DefaultCleaningSize
	}
	s := &Splitter{size: size}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the target chunk size in characters.
func (s *Splitter) Size() int {
	return s.size
}

// Split splits text into a sequence of trimmed, non-empty chunks.
// Text no longer than the target size is returned as a single chunk.
// Whitespace-only text yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ranges := s.Ranges(text)
	chunks := make([]string, 0, len(ranges))
	for _, r := range ranges {
		chunk := strings.TrimSpace(text[r.Start:r.End])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Ranges returns the exact partition of text used by Split.
// Concatenating text[r.Start:r.End] over all ranges reproduces text.
func (s *Splitter) Ranges(text string) []Range {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.size {
		return []Range{{Start: 0, End: len(text)}}
	}

	ranges := make([]Range, 0, len(text)/s.size+1)
	start := 0
	for start < len(text) {
		end := advance(text, start, s.size)
		if end < len(text) {
			end = s.breakPoint(text, start, end)
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges
}

// breakPoint picks the end of the chunk starting at start whose tentative
// end is end. The result is always in (start, end].
func (s *Splitter) breakPoint(text string, start, end int) int {
	window := text[start:end]

	if i := strings.LastIndex(window, paragraphBreak); i > 0 {
		return start + i + len(paragraphBreak)
	}

	best := -1
	for _, sep := range sentenceBreaks {
		if i := strings.LastIndex(window, sep); i > best {
			best = i
		}
	}
	if best > 0 {
		return start + best + 2
	}

	if s.lineBreaks {
		if i := strings.LastIndex(window, "\n"); i > 0 {
			return start + i + 1
		}
	}

	// hard cut; end is already a rune boundary
	return end
}

// advance returns the byte offset n characters past start, or len(text).
func advance(text string, start, n int) int {
	i := start
	for ; n > 0 && i < len(text); n-- {
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
	}
	return i
}

// Split splits text into chunks of at most size characters using a default Splitter.
func Split(text string, size int) []string {
	return New(size).Split(text)
}
