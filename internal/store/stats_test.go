package store

import (
	"context"
	"testing"
)

func TestStatsCountsActivePinnedAndVectorless(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := insertTestMemory(t, ctx, s, "has a vector")
	insertTestMemory(t, ctx, s, "missing a vector")
	deleted := insertTestMemory(t, ctx, s, "soft deleted one")

	if err := s.SetEmbedding(ctx, a, []float32{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("set embedding: %v", err)
	}
	if err := s.Pin(ctx, a); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := s.SoftDelete(ctx, deleted, ""); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMemories != 3 {
		t.Errorf("expected total=3, got %d", st.TotalMemories)
	}
	if st.ActiveMemories != 2 {
		t.Errorf("expected active=2, got %d", st.ActiveMemories)
	}
	if st.VectorlessCount != 1 {
		t.Errorf("expected vectorless=1, got %d", st.VectorlessCount)
	}
	if st.PinnedCount != 1 {
		t.Errorf("expected pinned=1, got %d", st.PinnedCount)
	}
	if st.DBSizeBytes <= 0 {
		t.Error("expected non-zero db size")
	}
}
