package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no extractor handles a file's extension.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrUnreadable is returned when a document cannot be read from disk.
	ErrUnreadable = errors.New("unreadable document")
)

// PageSeparator joins the text of consecutive pages.
const PageSeparator = "\n\n"

// TextExtractor extracts raw text from a document on disk.
// Implementations must be thread-safe for concurrent use.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// PlainText reads UTF-8 text files as-is.
type PlainText struct{}

var _ TextExtractor = PlainText{}

// Extract returns the file contents.
func (PlainText) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// ByExtension dispatches to an extractor chosen by the file extension.
type ByExtension struct {
	extractors map[string]TextExtractor
}

var _ TextExtractor = (*ByExtension)(nil)

// NewByExtension creates a dispatcher handling .pdf with a PDFExtractor and
// .txt/.md with PlainText.
func NewByExtension() *ByExtension {
	b := &ByExtension{extractors: make(map[string]TextExtractor)}
	b.Register(".pdf", NewPDFExtractor())
	b.Register(".txt", PlainText{})
	b.Register(".md", PlainText{})
	return b
}

// Register sets the extractor for ext, replacing any previous one.
func (b *ByExtension) Register(ext string, e TextExtractor) {
	b.extractors[normalizeExt(ext)] = e
}

// Supports reports whether path has a registered extension.
func (b *ByExtension) Supports(path string) bool {
	_, ok := b.extractors[normalizeExt(filepath.Ext(path))]
	return ok
}

// Extract delegates to the extractor registered for the file's extension.
func (b *ByExtension) Extract(ctx context.Context, path string) (string, error) {
	e, ok := b.extractors[normalizeExt(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	return e.Extract(ctx, path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
