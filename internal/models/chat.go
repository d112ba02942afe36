// ABOUTME: Chat session, message, and query result models
// ABOUTME: Messages are append-only and ordered by creation time within a session
package models

import "time"

// Message roles. Only these two appear in stored history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a conversation. Assistant messages carry
// the citations they were generated from.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession owns an ordered sequence of messages. UpdatedAt is bumped
// on every append.
type ChatSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueryResult is the outcome of one retrieval-augmented query.
type QueryResult struct {
	Answer string           `json:"answer"`
	Chunks []RetrievedChunk `json:"chunks"`
	Query  string           `json:"query"`
}
