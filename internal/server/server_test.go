// ABOUTME: HTTP API tests using httptest and an in-memory chat store
// ABOUTME: Covers chat flow, session lifecycle, model listing, and reindexing
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/docchat-standalone/internal/models"
	"github.com/harper/docchat-standalone/internal/storage/sqlite"
)

type fakeQuerier struct {
	result      *models.QueryResult
	err         error
	lastModel   string
	lastHistory []models.ChatMessage
}

func (f *fakeQuerier) Query(_ context.Context, question, modelKey string, history []models.ChatMessage) (*models.QueryResult, error) {
	f.lastModel = modelKey
	f.lastHistory = history
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.QueryResult{
		Answer: "Answer to: " + question,
		Chunks: []models.RetrievedChunk{
			{DocPath: "setup.md", Title: "Setup Guide", Text: "Install it.", Score: 0.9},
		},
		Query: question,
	}, nil
}

type fakeIngester struct {
	count int
	err   error
}

func (f *fakeIngester) Ingest(context.Context) (int, error) { return f.count, f.err }

func newTestServer(t *testing.T, querier Querier, ingester Ingester) (*Server, *sqlite.ChatStore) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	history := sqlite.NewChatStore(db)
	srv := New(Config{EnableChatHistory: true, MaxHistoryMessages: 10}, querier, ingester, history, nil)
	return srv, history
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := getJSON(t, srv.Handler(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestModels(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := getJSON(t, srv.Handler(), "/api/models")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Models  []string `json:"models"`
		Default string   `json:"default"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)

	if body.Default != "openai" {
		t.Errorf("default = %q, want openai", body.Default)
	}
	found := false
	for _, m := range body.Models {
		if m == "groq-llama-8b" {
			found = true
		}
	}
	if !found {
		t.Errorf("models missing groq-llama-8b: %v", body.Models)
	}
}

func TestChat_NewSession(t *testing.T) {
	querier := &fakeQuerier{}
	srv, history := newTestServer(t, querier, &fakeIngester{})

	rec := postJSON(t, srv.Handler(), "/api/chat", chatRequest{Question: "How do I install?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)

	if resp.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if resp.Answer != "Answer to: How do I install?" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("got %d sources, want 1", len(resp.Sources))
	}
	if resp.Sources[0].Title != "Setup Guide" || resp.Sources[0].URL != "../setup/" {
		t.Errorf("source not shaped: %+v", resp.Sources[0])
	}

	// Both turns were persisted.
	messages, err := history.Messages(resp.SessionID)
	if err != nil {
		t.Fatalf("Messages() failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(messages))
	}
	if messages[0].Role != models.RoleUser || messages[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s", messages[0].Role, messages[1].Role)
	}
	if len(messages[1].Sources) != 1 {
		t.Errorf("assistant message missing sources")
	}
}

func TestChat_HistoryExcludesCurrentQuestion(t *testing.T) {
	querier := &fakeQuerier{}
	srv, _ := newTestServer(t, querier, &fakeIngester{})
	handler := srv.Handler()

	rec := postJSON(t, handler, "/api/chat", chatRequest{Question: "first question"})
	var first chatResponse
	json.Unmarshal(rec.Body.Bytes(), &first)

	if len(querier.lastHistory) != 0 {
		t.Errorf("first turn should see empty history, got %d", len(querier.lastHistory))
	}

	postJSON(t, handler, "/api/chat", chatRequest{
		Question:  "second question",
		SessionID: first.SessionID,
	})

	if len(querier.lastHistory) != 2 {
		t.Fatalf("second turn should see 2 history messages, got %d", len(querier.lastHistory))
	}
	for _, msg := range querier.lastHistory {
		if strings.Contains(msg.Content, "second question") {
			t.Error("history must not contain the current question")
		}
	}
}

func TestChat_UnknownSessionIsCreated(t *testing.T) {
	srv, history := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := postJSON(t, srv.Handler(), "/api/chat", chatRequest{
		Question:  "hello",
		SessionID: "client-chosen-id",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	exists, _ := history.SessionExists("client-chosen-id")
	if !exists {
		t.Error("unknown session id should be created on first use")
	}
}

func TestChat_ModelKeyForwarded(t *testing.T) {
	querier := &fakeQuerier{}
	srv, _ := newTestServer(t, querier, &fakeIngester{})

	postJSON(t, srv.Handler(), "/api/chat", chatRequest{Question: "q", Model: "groq-mixtral"})
	if querier.lastModel != "groq-mixtral" {
		t.Errorf("model key = %q, want groq-mixtral", querier.lastModel)
	}
}

func TestChat_MissingQuestion(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := postJSON(t, srv.Handler(), "/api/chat", chatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_QueryFailure(t *testing.T) {
	querier := &fakeQuerier{err: errors.New("backend down")}
	srv, _ := newTestServer(t, querier, &fakeIngester{})

	rec := postJSON(t, srv.Handler(), "/api/chat", chatRequest{Question: "q"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCreateSession(t *testing.T) {
	srv, history := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := postJSON(t, srv.Handler(), "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["session_id"] == "" {
		t.Fatal("missing session_id")
	}

	exists, _ := history.SessionExists(body["session_id"])
	if !exists {
		t.Error("session not persisted")
	}
}

func TestSessionMessages(t *testing.T) {
	srv, history := newTestServer(t, &fakeQuerier{}, &fakeIngester{})
	handler := srv.Handler()

	id, _ := history.CreateSession("")
	history.AddMessage(id, models.RoleUser, "hi", nil)

	rec := getJSON(t, handler, "/api/sessions/"+id+"/messages")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Messages) != 1 || body.Messages[0].Content != "hi" {
		t.Errorf("messages = %+v", body.Messages)
	}
}

func TestSessionMessages_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := getJSON(t, srv.Handler(), "/api/sessions/ghost/messages")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReindex(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{count: 42})

	rec := postJSON(t, srv.Handler(), "/api/reindex", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Indexed int    `json:"chunks_indexed"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "success" || body.Indexed != 42 {
		t.Errorf("body = %+v", body)
	}
}

func TestReindex_Failure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{err: errors.New("docs missing")})

	rec := postJSON(t, srv.Handler(), "/api/reindex", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &fakeQuerier{}, &fakeIngester{})

	rec := getJSON(t, srv.Handler(), "/health")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
