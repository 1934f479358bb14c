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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/extract"
	"github.com/poiesic/transcriptdb/lock"
	"github.com/poiesic/transcriptdb/storage"
)

// DocumentState is the stage a document has reached in a run.
type DocumentState int

const (
	StateDiscovered DocumentState = iota
	StateTextExtracted
	StateBoundariesDetected
	StateEnriched
	StateBuilt
	StateLoaded

	// StateNoText means the document had no meaningful text.
	StateNoText
	// StateNoInterviews means no interview was long enough to keep.
	StateNoInterviews
	// StateFailed means the document could not be read or loaded.
	StateFailed
)

var stateNames = map[DocumentState]string{
	StateDiscovered:         "discovered",
	StateTextExtracted:      "text-extracted",
	StateBoundariesDetected: "boundaries-detected",
	StateEnriched:           "enriched",
	StateBuilt:              "built",
	StateLoaded:             "loaded",
	StateNoText:             "no-text",
	StateNoInterviews:       "no-interviews",
	StateFailed:             "failed",
}

func (s DocumentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DocumentState(%d)", int(s))
}

// Terminal reports whether a document in state s will not progress further.
func (s DocumentState) Terminal() bool {
	switch s {
	case StateLoaded, StateNoText, StateNoInterviews, StateFailed:
		return true
	default:
		return false
	}
}

// DocumentResult is the outcome of processing one document.
type DocumentResult struct {
	Name           string
	Path           string
	State          DocumentState
	Interviews     int
	Records        int
	DegradedChunks int
	Err            error
}

// Summary aggregates the results of a run.
type Summary struct {
	Documents int
	Records   int
	Failed    int
	Elapsed   time.Duration
	Results   []DocumentResult
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total documents processed: %d\n", s.Documents)
	fmt.Fprintf(&b, "Total records created: %d\n", s.Records)
	fmt.Fprintf(&b, "Failed documents: %d\n", s.Failed)
	fmt.Fprintf(&b, "Time elapsed: %.2f seconds", s.Elapsed.Seconds())
	return b.String()
}

// Pipeline ingests transcript documents into a vector store.
type Pipeline struct {
	store     storage.VectorStore
	provider  ai.AIProvider
	extractor extract.TextExtractor
	locker    lock.Locker
	config    *Config
	progress  io.Writer
	root      *slog.Logger
	logger    *slog.Logger

	detector *Detector
	enricher *Enricher
	builder  *Builder
	loader   *Loader
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config == nil {
			return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
		}
		c := *config
		p.config = &c
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithLocker sets the lock guarding store writes. Default is an in-process lock;
// use a distributed lock when several processes load the same namespace.
func WithLocker(locker lock.Locker) Option {
	return func(p *Pipeline) error {
		p.locker = locker
		return nil
	}
}

// WithProgress enables document progress reporting to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	store storage.VectorStore,
	provider ai.AIProvider,
	extractor extract.TextExtractor,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		store:     store,
		provider:  provider,
		extractor: extractor,
		config:    DefaultConfig(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if p.locker == nil {
		p.locker = lock.NewLocal()
	}

	p.root = p.logger
	p.logger = p.root.With("component", "pipeline")
	p.detector = NewDetector(provider.Segmenter(), p.config.DetectionSampleSize, p.root)
	p.enricher = NewEnricher(provider.FieldExtractor(), provider.Cleaner(), p.config, p.root)
	p.builder = NewBuilder(provider.Embedder(), p.config, p.root)
	p.loader = NewLoader(store, p.locker, p.config, p.root)
	return p, nil
}

// Config returns a copy of the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return *p.config
}

// Discover lists the documents in dir matching the configured pattern,
// sorted by path.
func (p *Pipeline) Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceDirNotFound, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, p.config.Pattern))
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", p.config.Pattern, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run ingests every matching document in dir.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Summary, error) {
	paths, err := p.Discover(dir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("discovered documents", "dir", dir, "documents", len(paths))
	return p.IngestFiles(ctx, paths)
}

// IngestFiles ingests the given documents concurrently. A document that
// fails contributes zero records and does not stop the others. An error is
// returned only when the run cannot start or ctx is cancelled.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Documents: len(paths)}
	if len(paths) == 0 {
		return summary, nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(paths))
		tracker.Start()
		defer tracker.Finish()
	}

	results, err := mapBounded(ctx, p.config.DocumentWorkers, paths,
		func(ctx context.Context, _ int, path string) DocumentResult {
			result := p.IngestFile(ctx, path)
			if tracker != nil {
				tracker.Done(result)
			}
			return result
		},
		func(_ int, path string, cause any) DocumentResult {
			p.logger.Error("document processing panicked", "document", filepath.Base(path), "panic", cause)
			result := DocumentResult{
				Name:  filepath.Base(path),
				Path:  path,
				State: StateFailed,
				Err:   fmt.Errorf("panic: %v", cause),
			}
			if tracker != nil {
				tracker.Done(result)
			}
			return result
		},
	)

	for i := range results {
		if results[i].Path == "" {
			// Never started because the run stopped early.
			results[i] = DocumentResult{Name: filepath.Base(paths[i]), Path: paths[i], State: StateDiscovered}
		}
		summary.Records += results[i].Records
		if results[i].State == StateFailed {
			summary.Failed++
		}
	}
	summary.Results = results
	summary.Elapsed = time.Since(start)

	if err != nil {
		return summary, err
	}
	p.logger.Info("ingestion complete",
		"documents", summary.Documents,
		"records", summary.Records,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed)
	return summary, nil
}

// IngestFile runs a single document through every stage and reports how far
// it got. Interview failures, including panics, cost only that interview's
// records.
func (p *Pipeline) IngestFile(ctx context.Context, path string) DocumentResult {
	name := filepath.Base(path)
	result := DocumentResult{Name: name, Path: path, State: StateDiscovered}
	logger := p.logger.With("document", name)

	fail := func(err error) DocumentResult {
		logger.Error("document failed", "state", result.State, "err", err)
		result.State = StateFailed
		result.Err = err
		return result
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return fail(fmt.Errorf("extracting text: %w", err))
	}
	result.State = StateTextExtracted
	if utf8.RuneCountInString(strings.TrimSpace(text)) < p.config.MinInterviewLength {
		logger.Warn("no meaningful text extracted")
		result.State = StateNoText
		return result
	}
	logger.Info("extracted text", "chars", utf8.RuneCountInString(text))

	spans := p.detector.with(p.root.With("document", name, "component", "detector")).Detect(ctx, text)
	result.State = StateBoundariesDetected
	interviews := SelectInterviews(text, spans, p.config.MinInterviewLength)
	result.Interviews = len(interviews)
	if len(interviews) == 0 {
		logger.Warn("no interviews detected")
		result.State = StateNoInterviews
		return result
	}
	logger.Info("detected interviews", "interviews", len(interviews))

	source := core.Source{Name: name, Path: absPath}
	docLogger := p.root.With("document", name)
	enricher := p.enricher.with(docLogger.With("component", "enricher"))
	builder := p.builder.with(docLogger.With("component", "builder"))

	enriched := make([]*core.EnrichedInterview, 0, len(interviews))
	for i, interview := range interviews {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		e, err := recovered(func() (*core.EnrichedInterview, error) {
			return enricher.Enrich(ctx, i, interview)
		})
		if err != nil {
			logger.Error("interview failed", "interview", i, "err", err)
			continue
		}
		result.DegradedChunks += e.DegradedChunks
		enriched = append(enriched, e)
	}
	result.State = StateEnriched

	var records []*core.Record
	for _, e := range enriched {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		built, err := recovered(func() ([]*core.Record, error) {
			return builder.Build(ctx, BuildRequest{
				Index:      e.Index,
				Fields:     e.Fields,
				Transcript: e.Transcript,
				Source:     source,
			}), nil
		})
		if err != nil {
			logger.Error("interview failed", "interview", e.Index, "err", err)
			continue
		}
		records = append(records, built...)
	}
	result.State = StateBuilt

	if len(records) == 0 {
		logger.Warn("no records created")
	}

	written, err := p.loader.with(docLogger.With("component", "loader")).Load(ctx, records)
	result.Records = written
	if err != nil {
		return fail(fmt.Errorf("loading records: %w", err))
	}
	result.State = StateLoaded
	logger.Info("ingested document", "records", written, "interviews", len(interviews))
	return result
}

// recovered runs fn, converting a panic into an error so one interview
// cannot take down the rest of its document.
func recovered[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
