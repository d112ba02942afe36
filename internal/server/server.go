// ABOUTME: HTTP API for chat, session history, model listing, and reindexing
// ABOUTME: JSON endpoints with CORS and request logging middleware
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harper/docchat-standalone/internal/llm"
	"github.com/harper/docchat-standalone/internal/models"
)

// Querier runs retrieval-augmented queries. *core.Retriever implements it.
type Querier interface {
	Query(ctx context.Context, question, modelKey string, history []models.ChatMessage) (*models.QueryResult, error)
}

// Ingester rebuilds the document index. *core.Ingestor implements it.
type Ingester interface {
	Ingest(ctx context.Context) (int, error)
}

// ChatHistory persists sessions and messages. *sqlite.ChatStore
// implements it.
type ChatHistory interface {
	CreateSession(sessionID string) (string, error)
	SessionExists(sessionID string) (bool, error)
	AddMessage(sessionID, role, content string, sources []models.Source) (int64, error)
	Messages(sessionID string) ([]models.ChatMessage, error)
	RecentMessages(sessionID string, limit int) ([]models.ChatMessage, error)
}

// Config holds server behavior settings
type Config struct {
	Addr               string
	EnableChatHistory  bool
	MaxHistoryMessages int
}

// Server is the HTTP API server
type Server struct {
	cfg       Config
	retriever Querier
	ingester  Ingester
	history   ChatHistory
	logger    *zap.Logger

	reindexMu sync.Mutex
}

func New(cfg Config, retriever Querier, ingester Ingester, history ChatHistory, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxHistoryMessages <= 0 {
		cfg.MaxHistoryMessages = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		retriever: retriever,
		ingester:  ingester,
		history:   history,
		logger:    logger,
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleSessionMessages)
	mux.HandleFunc("POST /api/reindex", s.handleReindex)
	mux.HandleFunc("GET /", s.handleRoot)

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the server until the context is canceled
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.logger.Info("http server starting", zap.String("addr", s.cfg.Addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Documentation Chat API",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"chat_history": s.history != nil,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  llm.AvailableModels(),
		"default": llm.DefaultModelKey,
	})
}

type chatRequest struct {
	Question  string `json:"question"`
	Model     string `json:"model,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	sessionID, err := s.resolveSession(req.SessionID)
	if err != nil {
		s.logger.Error("failed to resolve session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	// History is loaded before the question is appended so the prompt
	// never contains the current turn.
	var history []models.ChatMessage
	if s.cfg.EnableChatHistory {
		history, err = s.history.RecentMessages(sessionID, s.cfg.MaxHistoryMessages)
		if err != nil {
			s.logger.Error("failed to load history", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
	}

	if _, err := s.history.AddMessage(sessionID, models.RoleUser, req.Question, nil); err != nil {
		s.logger.Error("failed to persist question", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist question")
		return
	}

	result, err := s.retriever.Query(r.Context(), req.Question, req.Model, history)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	sources := make([]models.Source, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		sources = append(sources, models.NewSource(chunk))
	}

	if _, err := s.history.AddMessage(sessionID, models.RoleAssistant, result.Answer, sources); err != nil {
		s.logger.Error("failed to persist answer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist answer")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    result.Answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// resolveSession returns a usable session id, creating the session when
// the id is empty or unknown.
func (s *Server) resolveSession(sessionID string) (string, error) {
	if sessionID == "" {
		return s.history.CreateSession("")
	}
	exists, err := s.history.SessionExists(sessionID)
	if err != nil {
		return "", err
	}
	if !exists {
		return s.history.CreateSession(sessionID)
	}
	return sessionID, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sessionID, err := s.history.CreateSession("")
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	exists, err := s.history.SessionExists(sessionID)
	if err != nil {
		s.logger.Error("failed to check session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to check session")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	messages, err := s.history.Messages(sessionID)
	if err != nil {
		s.logger.Error("failed to load messages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !s.reindexMu.TryLock() {
		writeError(w, http.StatusConflict, "reindex already in progress")
		return
	}
	defer s.reindexMu.Unlock()

	count, err := s.ingester.Ingest(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"chunks_indexed": count,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
