// ABOUTME: Minimal REST client for a Chroma vector database
// ABOUTME: Creates the collection on first use with cosine distance
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/harper/docchat-standalone/internal/storage"
)

// Store is a storage.VectorStore backed by a Chroma server.
type Store struct {
	url        string
	collection string
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

type Config struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "documentation"
	}
	return &Store{
		url:        cfg.URL,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// ensureCollection resolves the collection UUID, creating the collection
// with cosine distance if it does not exist yet.
func (s *Store) ensureCollection(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collectionID != "" {
		return s.collectionID, nil
	}

	body := map[string]any{
		"name":          s.collection,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections", s.url), body, &resp); err != nil {
		return "", fmt.Errorf("create collection %q: %w", s.collection, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create collection %q: empty collection id", s.collection)
	}

	s.collectionID = resp.ID
	return s.collectionID, nil
}

func (s *Store) Add(ctx context.Context, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}

	id, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(records))
	embeddings := make([][]float64, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Embedding
		documents[i] = r.Document
		metadatas[i] = r.Metadata
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	return s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/add", s.url, id), body, nil)
}

func (s *Store) Query(ctx context.Context, embedding []float64, topK int) ([]storage.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	id, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	req := map[string]any{
		"query_embeddings": [][]float64{embedding},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp struct {
		IDs       [][]string            `json:"ids"`
		Documents [][]string            `json:"documents"`
		Metadatas [][]map[string]string `json:"metadatas"`
		Distances [][]float64           `json:"distances"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections/%s/query", s.url, id), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	matches := make([]storage.Match, 0, len(resp.IDs[0]))
	for i, matchID := range resp.IDs[0] {
		m := storage.Match{ID: matchID, Distance: 1.0}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			m.Document = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Distance = resp.Distances[0][i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Clear drops the collection and recreates it empty.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.ensureCollection(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s", s.url, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("chroma DELETE %s failed: %s", url, resp.Status)
	}

	s.mu.Lock()
	s.collectionID = ""
	s.mu.Unlock()

	_, err = s.ensureCollection(ctx)
	return err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	id, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/count", s.url, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("chroma GET %s failed: %s", url, resp.Status)
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
