// ABOUTME: Vector store abstraction shared by the chroma client and the in-memory store
// ABOUTME: Stores embedded documents and answers nearest-neighbor queries by distance
package storage

import "context"

// Record is one embedded document chunk as persisted in a vector store.
type Record struct {
	ID        string
	Embedding []float64
	Document  string
	Metadata  map[string]string
}

// Match is a query hit. Distance is the cosine distance reported by the
// store; smaller is closer. Callers convert distance to a relevance
// score.
type Match struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// VectorStore persists embedded chunks and serves similarity queries.
type VectorStore interface {
	// Add upserts records into the store.
	Add(ctx context.Context, records []Record) error
	// Query returns up to topK nearest matches ordered by ascending
	// distance.
	Query(ctx context.Context, embedding []float64, topK int) ([]Match, error)
	// Clear removes all records.
	Clear(ctx context.Context) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
