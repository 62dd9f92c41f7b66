package store

import (
	"context"
	"testing"

	"github.com/rcliao/agent-memory/internal/model"
)

func TestVectorTopKOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	near := insertTestMemory(t, ctx, s, "close vector")
	far := insertTestMemory(t, ctx, s, "far vector")
	if err := s.SetEmbedding(ctx, near, []float32{1, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("set embedding near: %v", err)
	}
	if err := s.SetEmbedding(ctx, far, []float32{0, 0, 0, 0, 0, 0, 0, 1}); err != nil {
		t.Fatalf("set embedding far: %v", err)
	}

	hits, err := s.VectorTopK(ctx, []float32{1, 0, 0, 0, 0, 0, 0, 0}, 5, model.Filter{Agent: "agent-a"})
	if err != nil {
		t.Fatalf("vector_topk: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != near {
		t.Errorf("expected nearest hit first, got %s", hits[0].ID)
	}
}

func TestLexicalTopKMatchesAndScoresHigherIsBetter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	insertTestMemory(t, ctx, s, "the quick brown fox jumps")
	insertTestMemory(t, ctx, s, "an unrelated sentence about cars")

	hits, err := s.LexicalTopK(ctx, "quick brown fox", 5, model.Filter{Agent: "agent-a"})
	if err != nil {
		t.Fatalf("lexical_topk: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one lexical hit")
	}
	if hits[0].Score <= 0 {
		t.Errorf("expected positive score for top hit, got %v", hits[0].Score)
	}
}

func TestLexicalTopKEmptyQueryReturnsNoHits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	insertTestMemory(t, ctx, s, "something to search")

	hits, err := s.LexicalTopK(ctx, "   ", 5, model.Filter{Agent: "agent-a"})
	if err != nil {
		t.Fatalf("lexical_topk: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits for blank query, got %v", hits)
	}
}

func TestVectorTopKRespectsNamespaceFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Insert(ctx, PutParams{
		ID: DeriveID("agent-a", "namespaced fact"), Agent: "agent-a", Namespace: "work",
		Text: "namespaced fact", NormalizedText: "namespaced fact", Category: model.CategoryFact,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SetEmbedding(ctx, id.ID, []float32{1, 1, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("set embedding: %v", err)
	}

	hits, err := s.VectorTopK(ctx, []float32{1, 1, 0, 0, 0, 0, 0, 0}, 5, model.Filter{Agent: "agent-a", Namespace: "personal"})
	if err != nil {
		t.Fatalf("vector_topk: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected namespace filter to exclude the hit, got %d", len(hits))
	}
}

func TestScanForMaintenanceAppliesPredicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	insertTestMemory(t, ctx, s, "keep me")
	insertTestMemory(t, ctx, s, "drop me")

	out, err := s.ScanForMaintenance(ctx, func(m model.Memory) bool {
		return m.Text == "keep me"
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 1 || out[0].Text != "keep me" {
		t.Fatalf("expected predicate to filter to 1 row, got %v", out)
	}
}
