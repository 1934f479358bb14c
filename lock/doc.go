// Package lock provides named critical sections.
//
// The ingestion loader holds a lock for the duration of a document's batched
// upserts so that concurrent document workers write one document at a time.
// Local serializes goroutines within a process; lock/redis extends the same
// guarantee across processes sharing a vector store.
package lock
