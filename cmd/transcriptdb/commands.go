package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/transcriptdb/core"
	"github.com/poiesic/transcriptdb/ingestion"
	"github.com/poiesic/transcriptdb/search"
	"github.com/poiesic/transcriptdb/watch"
)

const rule = "============================================================"

func ingestionConfig(c *cli.Context, s *session) (*ingestion.Config, error) {
	if c.IsSet("pattern") {
		s.cfg.Ingest.Pattern = c.String("pattern")
	}
	if c.IsSet("id-strategy") {
		s.cfg.Ingest.IDStrategy = c.String("id-strategy")
	}
	if c.IsSet("workers") {
		s.cfg.Ingest.DocumentWorkers = c.Int("workers")
	}
	return s.cfg.IngestionConfig()
}

func sourceDir(c *cli.Context, s *session) string {
	if c.IsSet("dir") {
		return c.String("dir")
	}
	return s.cfg.Ingest.Dir
}

func printBanner(w io.Writer, s *session, source string, workers int) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Transcript Ingestion")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Source: %s\n", source)
	fmt.Fprintf(w, "Store: %s\n", storeLabel(s.cfg))
	fmt.Fprintf(w, "Namespace: %s\n", s.cfg.Ingest.Namespace)
	fmt.Fprintf(w, "Embedding model: %s (%d dimensions)\n", s.cfg.AI.EmbeddingModel, s.cfg.AI.EmbeddingDimension)
	fmt.Fprintf(w, "Extraction model: %s\n", s.cfg.AI.ClassifierModel)
	fmt.Fprintf(w, "Documents processed concurrently: %d\n", workers)
	fmt.Fprintln(w, rule)
}

func printSummary(w io.Writer, summary *ingestion.Summary, namespace string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Ingestion Complete!")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, summary.String())
	fmt.Fprintf(w, "Namespace: %s\n", namespace)
	fmt.Fprintln(w, rule)
	for _, r := range summary.Results {
		if r.State == ingestion.StateFailed {
			fmt.Fprintf(w, "Failed: %s: %v\n", r.Name, r.Err)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Note: records are added to the namespace; previous data is not replaced.")
	fmt.Fprintln(w, "      Run delete-namespace first to start from an empty namespace.")
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	icfg, err := ingestionConfig(c, s)
	if err != nil {
		return err
	}
	opts := []ingestion.Option{ingestion.WithConfig(icfg)}
	if !c.Bool("no-progress") {
		opts = append(opts, ingestion.WithProgress(os.Stderr))
	}
	pipeline, err := s.db.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	var summary *ingestion.Summary
	if files := c.StringSlice("files"); len(files) > 0 {
		printBanner(w, s, strings.Join(files, ", "), icfg.DocumentWorkers)
		summary, err = pipeline.IngestFiles(ctx, files)
	} else {
		dir := sourceDir(c, s)
		abs, _ := filepath.Abs(dir)
		printBanner(w, s, abs, icfg.DocumentWorkers)
		var paths []string
		paths, err = pipeline.Discover(dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintf(w, "\nNo documents matching %s found in %s\n", icfg.Pattern, abs)
			fmt.Fprintln(w, "Add transcript documents to this folder and run ingest again.")
			return nil
		}
		fmt.Fprintf(w, "\nFound %d document(s):\n", len(paths))
		for _, p := range paths {
			fmt.Fprintf(w, "  - %s\n", filepath.Base(p))
		}
		fmt.Fprintln(w)
		summary, err = pipeline.IngestFiles(ctx, paths)
	}
	if summary != nil {
		printSummary(w, summary, icfg.Namespace)
	}
	if err != nil {
		return fmt.Errorf("ingestion interrupted: %w", err)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	icfg, err := ingestionConfig(c, s)
	if err != nil {
		return err
	}
	pipeline, err := s.db.NewIngestionPipeline(ingestion.WithConfig(icfg))
	if err != nil {
		return err
	}

	dir := sourceDir(c, s)
	if _, err := pipeline.Discover(dir); err != nil {
		return err
	}

	watcher, err := watch.New(icfg.Pattern, watch.WithSettleDelay(c.Duration("settle")))
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}

	w := c.App.Writer
	// Files written while the initial run is in progress also arrive as
	// events; skip those whose contents the run already saw.
	seen := make(map[string]time.Time)
	if !c.Bool("skip-existing") {
		summary, err := pipeline.Run(ctx, dir)
		if summary != nil {
			fmt.Fprintln(w, summary.String())
			for _, r := range summary.Results {
				if info, statErr := os.Stat(r.Path); statErr == nil && r.State.Terminal() {
					seen[r.Path] = info.ModTime()
				}
			}
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "Watching %s for %s (Ctrl-C to stop)\n", dir, icfg.Pattern)
	for path := range events {
		if mod, ok := seen[path]; ok {
			delete(seen, path)
			if info, err := os.Stat(path); err == nil && info.ModTime().Equal(mod) {
				continue
			}
		}
		result := pipeline.IngestFile(ctx, path)
		if result.Err != nil {
			slog.Error("document failed", "document", result.Name, "state", result.State, "err", result.Err)
			continue
		}
		fmt.Fprintf(w, "%s: %s, %d records\n", result.Name, result.State, result.Records)
	}
	return nil
}

func deleteNamespaceCommand(c *cli.Context) error {
	ctx := context.Background()

	s, err := openSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	namespace := s.cfg.Ingest.Namespace
	w := c.App.Writer
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Delete Transcripts Namespace")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Store: %s\n", storeLabel(s.cfg))
	fmt.Fprintf(w, "Namespace: %s\n", namespace)
	fmt.Fprintln(w, rule)

	if !c.Bool("yes") {
		ok, err := confirm(c.App.Reader, w,
			fmt.Sprintf("\nThis will delete ALL records in the '%s' namespace. Continue? (yes/no): ", namespace))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := s.db.DeleteNamespace(ctx, namespace); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDeleted all records from namespace '%s'\n", namespace)
	return nil
}

// confirm asks prompt and reports whether the answer was "yes".
func confirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	if r == nil {
		r = os.Stdin
	}
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}

func updateMetadataCommand(c *cli.Context) error {
	ctx := context.Background()

	updates, err := parseAssignments(c.StringSlice("set"))
	if err != nil {
		return err
	}

	s, err := openSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	id := c.String("id")
	namespace := s.cfg.Ingest.Namespace
	before, err := s.db.Store().Fetch(ctx, namespace, id)
	if err != nil {
		return err
	}

	updated, err := s.db.UpdateMetadata(ctx, namespace, id, updates)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Updated %s in '%s':\n", id, namespace)
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var old any
		if len(before) > 0 {
			old = before[0].Metadata[k]
		}
		fmt.Fprintf(w, "  %s: %v -> %v\n", k, old, updated.Metadata[k])
	}
	return nil
}

// parseAssignments turns key=value pairs into a metadata map.
func parseAssignments(pairs []string) (map[string]any, error) {
	updates := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", pair)
		}
		updates[key] = parseValue(value)
	}
	return updates, nil
}

// parseValue interprets s as an int, a float or a bool, falling back to the
// string itself.
func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	s, err := openSession(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close()

	searcher, err := s.db.NewSearcher(
		search.WithNamespace(s.cfg.Ingest.Namespace),
		search.WithThreshold(float32(c.Float64("threshold"))),
	)
	if err != nil {
		return err
	}
	matches, err := searcher.FindSimilar(ctx, c.String("query"), c.Int("limit"))
	if err != nil {
		return err
	}
	printMatches(c.App.Writer, matches)
	return nil
}

func printMatches(w io.Writer, matches []*core.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches.")
		return
	}
	for i, m := range matches {
		idx, _ := m.Record.MetaInt(core.MetaChunkIndex)
		total, _ := m.Record.MetaInt(core.MetaTotalChunks)
		fmt.Fprintf(w, "%d. [%.3f] %s - %s (chunk %d/%d) %s\n",
			i+1, m.Score,
			m.Record.MetaString(core.MetaCompany),
			m.Record.MetaString(core.MetaInterviewee),
			idx+1, total,
			m.Record.MetaString(core.MetaSourceName))
	}
}
