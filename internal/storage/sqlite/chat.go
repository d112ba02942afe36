// ABOUTME: Chat session and message persistence for SQLite
// ABOUTME: Messages are append-only; appends bump the session's updated_at
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harper/docchat-standalone/internal/models"
)

// ErrSessionNotFound means the session id does not exist
var ErrSessionNotFound = errors.New("session not found")

// ChatStore handles chat history persistence
type ChatStore struct {
	db *DB
}

// NewChatStore creates a new ChatStore
func NewChatStore(db *DB) *ChatStore {
	return &ChatStore{db: db}
}

// CreateSession creates a new session. An empty id generates a UUID.
func (s *ChatStore) CreateSession(sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO chat_sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
	`, sessionID, now, now)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return sessionID, nil
}

// SessionExists reports whether the session id exists
func (s *ChatStore) SessionExists(sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM chat_sessions WHERE id = ?", sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetSession returns a session by id
func (s *ChatStore) GetSession(sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.QueryRow(`
		SELECT id, created_at, updated_at
		FROM chat_sessions
		WHERE id = ?
	`, sessionID).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AddMessage appends a message to a session and bumps its updated_at.
// Returns the message row id.
func (s *ChatStore) AddMessage(sessionID, role, content string, sources []models.Source) (int64, error) {
	exists, err := s.SessionExists(sessionID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	var sourcesJSON sql.NullString
	if len(sources) > 0 {
		data, err := json.Marshal(sources)
		if err != nil {
			return 0, fmt.Errorf("marshal sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO chat_messages (session_id, role, content, sources_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, role, content, sourcesJSON, now)
	if err != nil {
		return 0, fmt.Errorf("add message: %w", err)
	}

	if _, err := s.db.Exec(`
		UPDATE chat_sessions SET updated_at = ? WHERE id = ?
	`, now, sessionID); err != nil {
		return 0, fmt.Errorf("update session timestamp: %w", err)
	}

	return res.LastInsertId()
}

// Messages returns all messages for a session in chronological order
func (s *ChatStore) Messages(sessionID string) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(`
		SELECT role, content, sources_json, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// RecentMessages returns the last limit messages for a session in
// chronological order.
func (s *ChatStore) RecentMessages(sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT role, content, sources_json, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Rows came back newest-first; flip to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// DeleteSession removes a session and all of its messages
func (s *ChatStore) DeleteSession(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM chat_messages WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM chat_sessions WHERE id = ?", sessionID)
	return err
}

func scanMessages(rows *sql.Rows) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	for rows.Next() {
		var (
			msg         models.ChatMessage
			sourcesJSON sql.NullString
		)

		if err := rows.Scan(&msg.Role, &msg.Content, &sourcesJSON, &msg.CreatedAt); err != nil {
			return nil, err
		}

		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &msg.Sources); err != nil {
				msg.Sources = nil
			}
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
