// ABOUTME: Tests for the in-memory vector store
// ABOUTME: Verifies ordering by distance, top-k limits, upserts, and clearing
package memory

import (
	"context"
	"testing"

	"github.com/harper/docchat-standalone/internal/storage"
)

func TestStore_QueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.Add(ctx, []storage.Record{
		{ID: "far", Embedding: []float64{0, 1, 0}, Document: "far doc"},
		{ID: "near", Embedding: []float64{1, 0, 0}, Document: "near doc"},
		{ID: "mid", Embedding: []float64{1, 1, 0}, Document: "mid doc"},
	})
	if err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	matches, err := s.Query(ctx, []float64{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	wantOrder := []string{"near", "mid", "far"}
	for i, want := range wantOrder {
		if matches[i].ID != want {
			t.Errorf("match %d = %s, want %s", i, matches[i].ID, want)
		}
	}

	if matches[0].Distance > 1e-9 {
		t.Errorf("identical vector should have ~0 distance, got %v", matches[0].Distance)
	}
	if matches[2].Distance < matches[1].Distance {
		t.Error("distances not ascending")
	}
}

func TestStore_QueryTopK(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	s.Add(ctx, []storage.Record{
		{ID: "a", Embedding: []float64{1, 0}},
		{ID: "b", Embedding: []float64{0, 1}},
		{ID: "c", Embedding: []float64{1, 1}},
	})

	matches, err := s.Query(ctx, []float64{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want 2", len(matches))
	}
}

func TestStore_AddUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	s.Add(ctx, []storage.Record{{ID: "x", Embedding: []float64{1, 0}, Document: "old"}})
	s.Add(ctx, []storage.Record{{ID: "x", Embedding: []float64{1, 0}, Document: "new"}})

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("upsert should not duplicate: count = %d", count)
	}

	matches, _ := s.Query(ctx, []float64{1, 0}, 1)
	if len(matches) != 1 || matches[0].Document != "new" {
		t.Errorf("upsert should replace document, got %+v", matches)
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	s.Add(ctx, []storage.Record{{ID: "a", Embedding: []float64{1}}})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	count, _ := s.Count(ctx)
	if count != 0 {
		t.Errorf("count after clear = %d, want 0", count)
	}

	matches, _ := s.Query(ctx, []float64{1}, 5)
	if len(matches) != 0 {
		t.Errorf("query after clear returned %d matches", len(matches))
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 1},
		{"length mismatch", []float64{1}, []float64{1, 0}, 1},
		{"empty", nil, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}
