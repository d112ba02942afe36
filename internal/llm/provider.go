// ABOUTME: Provider interfaces for answer generation and text embedding
// ABOUTME: Embedding roles distinguish document indexing from query lookup
package llm

import "context"

// EmbeddingRole tells the embedding backend how the vector will be used.
// Backends that embed documents and queries differently use it to pick
// the task type; backends with a single embedding space ignore it.
type EmbeddingRole string

const (
	// RoleDocument marks text being indexed into the vector store.
	RoleDocument EmbeddingRole = "retrieval_document"
	// RoleQuery marks a user question being embedded for lookup.
	RoleQuery EmbeddingRole = "retrieval_query"
)

// Provider generates an answer from a fully assembled prompt.
type Provider interface {
	// Name identifies the backing model, for logging and citations.
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string, role EmbeddingRole) ([]float64, error)
}
