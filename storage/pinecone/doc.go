// Package pinecone implements storage.VectorStore on the Pinecone data plane
// REST API.
//
// The index host is taken from Config.Host or, when only the index name is
// known, resolved once through the control plane (GET /indexes/{name}),
// which also reports the index dimension used to reject mismatched vectors
// before they are sent.
package pinecone
