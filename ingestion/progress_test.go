package ingestion

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Done(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3)
	tracker.Start()

	tracker.Done(DocumentResult{State: StateLoaded, Records: 4})
	tracker.Done(DocumentResult{State: StateFailed, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "Documents: 1/3 (33.3%) - 4 records, 0 failed")
	assert.Contains(t, out, "Documents: 2/3 (66.7%) - 4 records, 1 failed")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1)
	tracker.Start()
	tracker.Done(DocumentResult{State: StateLoaded, Records: 2})
	tracker.Finish()

	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "Documents: 1/1 (100.0%)")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1)
	tracker.Start()
	tracker.Done(DocumentResult{State: StateLoaded})
	tracker.Done(DocumentResult{State: StateLoaded})

	assert.NotContains(t, buf.String(), "2/1")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 2)

	tracker.Done(DocumentResult{State: StateLoaded})
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_Elapsed(t *testing.T) {
	tracker := NewProgressTracker(&bytes.Buffer{}, 1)
	tracker.Start()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, tracker.Elapsed(), 5*time.Millisecond)
}
