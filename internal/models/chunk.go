// ABOUTME: DocumentChunk and RetrievedChunk models for the retrieval pipeline
// ABOUTME: Chunk IDs are deterministic so re-ingesting unchanged docs is idempotent
package models

import "strings"

// DocumentChunk is the atomic unit of indexed documentation text.
type DocumentChunk struct {
	ID        string            `json:"id"`
	DocPath   string            `json:"doc_path"`
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	Embedding []float64         `json:"embedding,omitempty"`
	Metadata  map[string]string `json:"metadata"`
}

// RetrievedChunk is a query-time projection of a stored chunk with a
// relevance score in [0, 1]. Never persisted.
type RetrievedChunk struct {
	DocPath  string            `json:"doc_path"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// SnippetLength is the display snippet size for citations.
const SnippetLength = 200

// Source is a user-facing citation derived from a retrieved chunk.
type Source struct {
	DocPath string  `json:"doc_path"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	URL     string  `json:"url,omitempty"`
}

// NewSource builds a citation with an ellipsis-suffixed display snippet
// and a docs-site URL derived from the document path.
func NewSource(chunk RetrievedChunk) Source {
	snippet := chunk.Text
	if runes := []rune(snippet); len(runes) > SnippetLength {
		snippet = string(runes[:SnippetLength]) + "..."
	}
	return Source{
		DocPath: chunk.DocPath,
		Title:   chunk.Title,
		Snippet: snippet,
		Score:   chunk.Score,
		URL:     "../" + strings.ReplaceAll(chunk.DocPath, ".md", "/"),
	}
}
