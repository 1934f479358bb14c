// Package extract reads the raw text out of source documents.
//
// A TextExtractor turns a file on disk into a single string. Extraction is
// best effort: a document that yields no text is not an error, callers treat
// the empty string as a document with nothing to ingest.
package extract
