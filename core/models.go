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

package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// Unknown is the sentinel used when a structured field could not be extracted.
const Unknown = "Unknown"

// RecordIDPrefix prefixes every record identifier written to the vector store.
const RecordIDPrefix = "transcript-"

// DefaultNamespace is the vector store partition holding transcript records.
const DefaultNamespace = "transcripts"

// ChunkTypeTranscript is the chunk_type metadata value for transcript records.
const ChunkTypeTranscript = "transcript"

// Metadata keys attached to every transcript record.
const (
	MetaCompany           = "company"
	MetaInterviewee       = "interviewee"
	MetaTranscript        = "transcript"
	MetaChunkIndex        = "chunk_index"
	MetaTotalChunks       = "total_chunks"
	MetaSourceName        = "source_name"
	MetaSourcePath        = "source_path"
	MetaSourceURL         = "source_url"
	MetaSourceDescription = "source_description"
	MetaChunkType         = "chunk_type"
)

// IDFromContent generates a deterministic 64-bit value from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// NewRecordID returns a fresh random record identifier.
// Two calls never return the same value.
func NewRecordID() string {
	id := uuid.New()
	return RecordIDPrefix + hex.EncodeToString(id[:])
}

// SourceRecordID returns a deterministic record identifier derived from the
// source document path and the record's position within it. Re-ingesting the
// same document produces the same identifiers.
func SourceRecordID(sourcePath string, interview, chunk int) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], IDFromContent(fmt.Sprintf("%s#%d#%d", sourcePath, interview, chunk)))
	return RecordIDPrefix + hex.EncodeToString(buf[:])
}

// Document is a source file read once per run.
type Document struct {
	Name string // Base file name
	Path string // Absolute path
	Text string // Raw extracted text, possibly empty
}

// Span is a half-open byte range [Start, End) within a document's text
// that holds one logical interview.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// InterviewFields holds the structured fields extracted from an interview.
type InterviewFields struct {
	Company     string
	Interviewee string
}

// UnknownFields returns the sentinel pair used when extraction fails.
func UnknownFields() InterviewFields {
	return InterviewFields{Company: Unknown, Interviewee: Unknown}
}

// Normalize replaces blank fields with the Unknown sentinel.
func (f InterviewFields) Normalize() InterviewFields {
	if strings.TrimSpace(f.Company) == "" {
		f.Company = Unknown
	} else {
		f.Company = strings.TrimSpace(f.Company)
	}
	if strings.TrimSpace(f.Interviewee) == "" {
		f.Interviewee = Unknown
	} else {
		f.Interviewee = strings.TrimSpace(f.Interviewee)
	}
	return f
}

// EnrichedInterview is one interview span after cleaning and field extraction.
type EnrichedInterview struct {
	Index          int // Position of the interview within its document
	Fields         InterviewFields
	Transcript     string // Cleaned chunks reassembled in original order
	Chunks         int    // Number of cleaning chunks
	DegradedChunks int    // Chunks that fell back to their original text
}

// Source identifies the document a record was built from.
type Source struct {
	Name string
	Path string
}

// URL returns the file URL of the source document.
func (s Source) URL() string {
	return "file://" + s.Path
}

// Record is the unit loaded into the vector store.
// Records are never mutated after they are built.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// MetaString returns the metadata value for key, or "" if absent or not a string.
func (r *Record) MetaString(key string) string {
	v, _ := r.Metadata[key].(string)
	return v
}

// MetaInt returns the metadata value for key as an int.
// Numeric values decoded from JSON are converted.
func (r *Record) MetaInt(key string) (int, bool) {
	switch v := r.Metadata[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	default:
		return 0, false
	}
}

// TranscriptMetadata is the typed form of a transcript record's metadata.
type TranscriptMetadata struct {
	Fields      InterviewFields
	Transcript  string
	ChunkIndex  int
	TotalChunks int
	Source      Source
}

// Description returns the human readable description stored with the record.
func (m TranscriptMetadata) Description() string {
	return fmt.Sprintf("Interview transcript: %s - %s (chunk %d/%d)",
		m.Fields.Company, m.Fields.Interviewee, m.ChunkIndex+1, m.TotalChunks)
}

// Map converts the metadata to the key/value form written to the vector store.
func (m TranscriptMetadata) Map() map[string]any {
	return map[string]any{
		MetaCompany:           m.Fields.Company,
		MetaInterviewee:       m.Fields.Interviewee,
		MetaTranscript:        m.Transcript,
		MetaChunkIndex:        m.ChunkIndex,
		MetaTotalChunks:       m.TotalChunks,
		MetaSourceName:        m.Source.Name,
		MetaSourcePath:        m.Source.Path,
		MetaSourceURL:         m.Source.URL(),
		MetaSourceDescription: m.Description(),
		MetaChunkType:         ChunkTypeTranscript,
	}
}

// Match is a record returned from a similarity query.
type Match struct {
	Record *Record
	Score  float32
}
