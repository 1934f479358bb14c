package search

import (
	"github.com/poiesic/transcriptdb/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(matches []*core.Match)
	FieldHit(record *core.Record, field string)
	VerbatimHit(record *core.Record)
	Finish(results []*core.Match)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.Match) {}
func (n *noopMonitor) FieldHit(_ *core.Record, _ string)   {}
func (n *noopMonitor) VerbatimHit(_ *core.Record)          {}
func (n *noopMonitor) Finish(_ []*core.Match)              {}
