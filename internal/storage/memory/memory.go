// ABOUTME: In-memory vector store using brute-force cosine distance
// ABOUTME: Used for tests and single-process deployments without a Chroma server
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/harper/docchat-standalone/internal/storage"
)

// Store keeps all records in memory and scans them on every query.
type Store struct {
	mu      sync.RWMutex
	records map[string]storage.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]storage.Record)}
}

func (s *Store) Add(_ context.Context, records []storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(_ context.Context, embedding []float64, topK int) ([]storage.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]storage.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, storage.Match{
			ID:       r.ID,
			Document: r.Document,
			Metadata: r.Metadata,
			Distance: cosineDistance(embedding, r.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]storage.Record)
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// cosineDistance is 1 - cosine similarity. Zero or mismatched vectors
// are treated as maximally distant.
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
