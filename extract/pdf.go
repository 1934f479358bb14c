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

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts the text layer of PDF documents page by page.
// Pages with no text are skipped; the rest are joined with PageSeparator.
// Extraction is best effort: a document the parser cannot open yields "",
// and a page whose text cannot be decoded is skipped.
type PDFExtractor struct {
	logger *slog.Logger
}

var _ TextExtractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{logger: slog.Default().With("component", "pdf-extractor")}
}

func (e *PDFExtractor) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

// Extract returns the document's text. Only a file that cannot be read from
// disk is an error; malformed PDFs and PDFs without a text layer yield "".
func (e *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	f, r, numPages, err := openPDF(path)
	if err != nil {
		e.log().Warn("pdf could not be parsed", "path", path, "err", err)
		return "", nil
	}
	defer f.Close()

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		content, err := pageText(r, i)
		if err != nil {
			e.log().Warn("skipping unreadable page", "path", path, "page", i, "err", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, PageSeparator), nil
}

// openPDF opens path and counts its pages, converting parser panics (seen on
// some malformed cross-reference tables) into errors.
func openPDF(path string) (f *os.File, r *pdf.Reader, numPages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			if f != nil {
				f.Close()
			}
			f, r, numPages, err = nil, nil, 0, fmt.Errorf("parser panic: %v", p)
		}
	}()
	f, r, err = pdf.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	return f, r, r.NumPage(), nil
}

func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("parser panic: %v", p)
		}
	}()
	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
