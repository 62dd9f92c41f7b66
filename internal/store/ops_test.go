package store

import (
	"context"
	"testing"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
)

func insertTestMemory(t *testing.T, ctx context.Context, s *SQLiteStore, text string) string {
	t.Helper()
	id := DeriveID("agent-a", text)
	if _, err := s.Insert(ctx, PutParams{
		ID: id, Agent: "agent-a", Text: text, NormalizedText: text, Category: model.CategoryFact,
	}); err != nil {
		t.Fatalf("insert %q: %v", text, err)
	}
	return id
}

func TestUpdateFieldsPartial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "the sky is blue")

	strength := 0.42
	if err := s.UpdateFields(ctx, id, Patch{Strength: &strength}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Strength != 0.42 {
		t.Errorf("expected strength 0.42, got %v", got.Strength)
	}
	// untouched fields survive the partial update
	if got.Text != "the sky is blue" {
		t.Errorf("unexpected text mutation: %q", got.Text)
	}
}

func TestUpdateFieldsMissingIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	strength := 1.0
	err := s.UpdateFields(ctx, "ghost", Patch{Strength: &strength})
	if !memerr.NotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSoftDeleteSetsTimestampAndReason(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "soft deleted fact")

	if err := s.SoftDelete(ctx, id, "gc_weak_stale_unused"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after soft delete: %v", err)
	}
	if got.SoftDeletedAt == nil {
		t.Error("expected soft_deleted_at to be set")
	}
	if got.DeleteReason != "gc_weak_stale_unused" {
		t.Errorf("expected delete_reason to record the reason, got %q", got.DeleteReason)
	}
	if got.SupersededBy != "" {
		t.Errorf("expected superseded_by to stay empty for a non-supersede delete, got %q", got.SupersededBy)
	}
}

func TestSoftDeleteWithExplicitSupersededByLeavesReasonSeparate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "superseded fact")

	winnerID := "winner-id"
	if err := s.UpdateFields(ctx, id, Patch{SupersededBy: &winnerID}); err != nil {
		t.Fatalf("set superseded_by: %v", err)
	}
	if err := s.SoftDelete(ctx, id, "superseded"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get after soft delete: %v", err)
	}
	if got.SupersededBy != winnerID {
		t.Errorf("expected superseded_by to hold the winner's id, got %q", got.SupersededBy)
	}
	if got.DeleteReason != "superseded" {
		t.Errorf("expected delete_reason to hold the free-text reason, got %q", got.DeleteReason)
	}
}

func TestHardDeleteRemovesFromAllIndices(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "hard deleted fact")
	if err := s.SetEmbedding(ctx, id, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}); err != nil {
		t.Fatalf("set embedding: %v", err)
	}
	if err := s.PutRelation(ctx, model.Relation{SubjectID: id, Predicate: "relates_to", ObjectID: "other"}); err != nil {
		t.Fatalf("put relation: %v", err)
	}

	if err := s.HardDelete(ctx, id); err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	if _, err := s.Get(ctx, id); !memerr.NotFound(err) {
		t.Fatalf("expected not-found after hard delete, got %v", err)
	}
	rels, err := s.ListRelations(ctx, id)
	if err != nil {
		t.Fatalf("list relations: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("expected relations purged, got %d", len(rels))
	}
}

func TestSetEmbeddingFlipsStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "needs a vector")

	if err := s.SetEmbedding(ctx, id, []float32{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("set embedding: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EmbeddingStatus != model.EmbeddingPresent {
		t.Errorf("expected embedding_status present, got %v", got.EmbeddingStatus)
	}
}

func TestSetEmbeddingTwiceReplacesVector(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "vector gets replaced")

	if err := s.SetEmbedding(ctx, id, []float32{1, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("first set embedding: %v", err)
	}
	if err := s.SetEmbedding(ctx, id, []float32{0, 1, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("second set embedding: %v", err)
	}

	vec, err := s.getVector(ctx, id)
	if err != nil {
		t.Fatalf("get vector: %v", err)
	}
	if len(vec) != 8 || vec[0] != 0 || vec[1] != 1 {
		t.Errorf("expected replaced vector [0 1 0...], got %v", vec)
	}
}

func TestPinAndUnpin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	id := insertTestMemory(t, ctx, s, "a pinned fact")

	if err := s.Pin(ctx, id); err != nil {
		t.Fatalf("pin: %v", err)
	}
	got, _ := s.Get(ctx, id)
	if !got.Pinned {
		t.Error("expected pinned=true")
	}

	if err := s.Unpin(ctx, id); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	got, _ = s.Get(ctx, id)
	if got.Pinned {
		t.Error("expected pinned=false after unpin")
	}
	if !got.LastReinforced.After(got.CreatedAt.Add(-1)) {
		t.Error("expected last_reinforced_at to be reset on unpin")
	}
}
