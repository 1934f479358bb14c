package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPlainText_Extract(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "Company: Acme\nhello")

	text, err := PlainText{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Company: Acme\nhello", text)
}

func TestPlainText_MissingFile(t *testing.T) {
	_, err := PlainText{}.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlainText_CancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PlainText{}.Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFExtractor_MalformedPDFYieldsNoText(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"fake.pdf":      "this is not a pdf document at all",
		"truncated.pdf": "%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
	} {
		path := writeFile(t, dir, name, content)

		text, err := NewPDFExtractor().Extract(context.Background(), path)
		require.NoError(t, err, name)
		assert.Empty(t, text, name)
	}
}

func TestPDFExtractor_ZeroValueUsable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fake.pdf", "not a pdf")

	text, err := (&PDFExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestPDFExtractor_MissingFile(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPDFExtractor_CancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fake.pdf", "not a pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFExtractor().Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestByExtension(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "notes.TXT", "plain words")
	doc := writeFile(t, dir, "notes.docx", "binary")

	b := NewByExtension()
	assert.True(t, b.Supports(txt))
	assert.True(t, b.Supports("x.pdf"))
	assert.False(t, b.Supports(doc))

	text, err := b.Extract(context.Background(), txt)
	require.NoError(t, err)
	assert.Equal(t, "plain words", text)

	_, err = b.Extract(context.Background(), doc)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestByExtension_Register(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.log", "log line")

	b := NewByExtension()
	b.Register("log", PlainText{})

	text, err := b.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "log line", text)
}
