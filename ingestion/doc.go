// Package ingestion turns a folder of interview transcript documents into
// embedded records in a vector store.
//
// A Pipeline runs each document through the same stages:
//   - text extraction (extract.TextExtractor)
//   - interview boundary detection (Detector)
//   - cleaning and field extraction per interview (Enricher)
//   - chunking and embedding (Builder)
//   - batched upserts under a lock (Loader)
//
// Documents are processed concurrently on a bounded worker pool, and so are
// the cleaning chunks of each interview. Failures are contained: a language
// service error degrades a single field or chunk, and an unreadable document
// contributes zero records without stopping the run.
package ingestion
