// Package chunker splits long text into bounded, boundary-aware chunks.
//
// A Splitter walks the text in windows of at most Size bytes. Before accepting
// a window it searches backward for the last paragraph break ("\n\n"), then the
// last sentence break (". ", "? ", "! "), then optionally the last line break,
// and only falls back to a hard cut (on a UTF-8 rune boundary) when none is
// found. The search never looks forward, so chunk starts strictly increase and
// the ranges partition the input exactly.
//
// Two granularities are used by the ingestion pipeline: coarse chunks for
// transcript cleaning and finer, line-break-aware chunks for embedding.
package chunker
