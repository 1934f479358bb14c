package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/chunker"
	"github.com/poiesic/transcriptdb/core"
)

// BuildRequest describes one enriched interview to turn into records.
type BuildRequest struct {
	Index      int // Interview position within the document
	Fields     core.InterviewFields
	Transcript string
	Source     core.Source
}

// Builder splits cleaned transcripts into embedding chunks and embeds them.
type Builder struct {
	embedder   ai.Embedder
	splitter   *chunker.Splitter
	idStrategy IDStrategy
	logger     *slog.Logger
}

// NewBuilder creates a record builder.
func NewBuilder(embedder ai.Embedder, config *Config, logger *slog.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		embedder:   embedder,
		splitter:   chunker.New(config.EmbeddingChunkSize, chunker.WithLineBreaks()),
		idStrategy: config.IDStrategy,
		logger:     logger.With("component", "builder"),
	}
}

func (b *Builder) with(logger *slog.Logger) *Builder {
	c := *b
	c.logger = logger
	return &c
}

// SurfaceText is the text embedded for a chunk: the interview's fields
// followed by the excerpt.
func SurfaceText(fields core.InterviewFields, chunk string) string {
	return fmt.Sprintf("Company: %s\nInterviewee: %s\nTranscript excerpt:\n%s",
		fields.Company, fields.Interviewee, chunk)
}

// Build returns one record per successfully embedded chunk of the transcript.
// Chunks are embedded one at a time; a chunk whose embedding fails is skipped
// and the rest are still built. Every record's total_chunks counts all
// attempted chunks, including skipped ones.
func (b *Builder) Build(ctx context.Context, req BuildRequest) []*core.Record {
	logger := b.logger.With("interview", req.Index)
	fields := req.Fields.Normalize()

	chunks := b.splitter.Split(req.Transcript)
	records := make([]*core.Record, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			logger.Warn("build interrupted", "chunk", i, "err", err)
			break
		}

		vector, err := b.embedder.EmbedText(ctx, SurfaceText(fields, chunk))
		if err != nil {
			logger.Warn("embedding failed, skipping chunk", "chunk", i, "err", err)
			continue
		}
		if len(vector) == 0 {
			logger.Warn("embedding was empty, skipping chunk", "chunk", i)
			continue
		}

		meta := core.TranscriptMetadata{
			Fields:      fields,
			Transcript:  chunk,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Source:      req.Source,
		}
		records = append(records, &core.Record{
			ID:       b.recordID(req, i),
			Values:   vector,
			Metadata: meta.Map(),
		})
	}

	if len(records) < len(chunks) {
		logger.Warn("some chunks were not embedded", "built", len(records), "chunks", len(chunks))
	}
	return records
}

func (b *Builder) recordID(req BuildRequest, chunk int) string {
	if b.idStrategy == IDStrategySource {
		return core.SourceRecordID(req.Source.Path, req.Index, chunk)
	}
	return core.NewRecordID()
}
