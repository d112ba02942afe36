// ABOUTME: Retrieval engine that turns a question into a grounded, cited answer
// ABOUTME: Embeds the query, ranks stored chunks, and prompts the selected generator
package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harper/docchat-standalone/internal/llm"
	"github.com/harper/docchat-standalone/internal/models"
	"github.com/harper/docchat-standalone/internal/storage"
)

// NoInfoAnswer is returned when retrieval finds nothing relevant. The
// generator is never invoked in that case.
const NoInfoAnswer = "I couldn't find any relevant information in the documentation to answer your question."

// GeneratorSelector resolves a model key to a generation provider.
// *llm.Factory implements it.
type GeneratorSelector interface {
	Provider(modelKey string) (llm.Provider, error)
}

// Retriever answers questions against the vector store.
type Retriever struct {
	store    storage.VectorStore
	embedder llm.Embedder
	selector GeneratorSelector
	topK     int
	logger   *zap.Logger
}

func NewRetriever(store storage.VectorStore, embedder llm.Embedder, selector GeneratorSelector, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		selector: selector,
		topK:     topK,
		logger:   logger,
	}
}

// Query runs the full retrieve-then-generate pipeline. History is used
// only for prompt context; persisting the exchange is the caller's job.
func (r *Retriever) Query(ctx context.Context, question, modelKey string, history []models.ChatMessage) (*models.QueryResult, error) {
	r.logger.Info("processing query",
		zap.String("question", question),
		zap.String("model_key", modelKey))

	embedding, err := r.embedder.Embed(ctx, question, llm.RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks := r.search(ctx, embedding)
	if len(chunks) == 0 {
		return &models.QueryResult{
			Answer: NoInfoAnswer,
			Chunks: []models.RetrievedChunk{},
			Query:  question,
		}, nil
	}

	r.logger.Info("retrieved relevant chunks", zap.Int("count", len(chunks)))

	prompt := BuildPrompt(question, chunks, history)

	provider, err := r.selector.Provider(modelKey)
	if err != nil {
		return nil, fmt.Errorf("select generator: %w", err)
	}

	answer, err := provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	r.logger.Info("generated answer", zap.String("model", provider.Name()))

	return &models.QueryResult{
		Answer: answer,
		Chunks: chunks,
		Query:  question,
	}, nil
}

// search queries the vector store and converts matches into scored
// chunks. Store failures degrade to an empty result rather than failing
// the whole query.
func (r *Retriever) search(ctx context.Context, embedding []float64) []models.RetrievedChunk {
	matches, err := r.store.Query(ctx, embedding, r.topK)
	if err != nil {
		r.logger.Warn("vector store query failed", zap.Error(err))
		return nil
	}

	chunks := make([]models.RetrievedChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, models.RetrievedChunk{
			DocPath:  m.Metadata["doc_path"],
			Title:    m.Metadata["title"],
			Text:     m.Document,
			Score:    ScoreFromDistance(m.Distance),
			Metadata: m.Metadata,
		})
	}
	return chunks
}

// ScoreFromDistance converts a cosine distance into a relevance score
// clamped to [0, 1].
func ScoreFromDistance(distance float64) float64 {
	score := 1.0 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
