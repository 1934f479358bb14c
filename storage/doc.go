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

// Package storage provides the vector store abstraction for transcriptdb.
//
// This package defines the VectorStore interface that decouples the ingestion
// pipeline from any particular backend. Records are (id, vector, metadata)
// triples grouped into namespaces.
//
// # Constructor Return Type Pattern
//
// Public constructors that open a store return the storage.VectorStore
// interface to enforce abstraction:
//
//	store, err := badger.OpenStore("/path/to/db")     // returns storage.VectorStore
//	store, err := pinecone.NewStore(ctx, cfg)         // returns storage.VectorStore
//
// Test helpers (badger.NewMemoryStore) return concrete types.
//
// # Implementations
//
//   - storage/badger: local, embedded store with brute-force cosine search
//   - storage/pinecone: Pinecone data plane over its REST API
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support.
package storage
