package store

import (
	"context"
	"testing"

	"github.com/rcliao/agent-memory/internal/model"
)

func TestRewriteRelationsMovesBothSidesAndPrunesSelfRefs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	loser := insertTestMemory(t, ctx, s, "loser fact")
	winner := insertTestMemory(t, ctx, s, "winner fact")
	third := insertTestMemory(t, ctx, s, "third fact")

	if err := s.PutRelation(ctx, model.Relation{SubjectID: loser, Predicate: "relates_to", ObjectID: third}); err != nil {
		t.Fatalf("put relation: %v", err)
	}
	if err := s.PutRelation(ctx, model.Relation{SubjectID: third, Predicate: "relates_to", ObjectID: loser}); err != nil {
		t.Fatalf("put relation: %v", err)
	}

	if err := s.RewriteRelations(ctx, loser, winner); err != nil {
		t.Fatalf("rewrite relations: %v", err)
	}

	rels, err := s.ListRelations(ctx, winner)
	if err != nil {
		t.Fatalf("list relations: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("expected 2 relations now referencing the winner, got %d", len(rels))
	}
	for _, r := range rels {
		if r.SubjectID == r.ObjectID {
			t.Errorf("expected self-referential rows to be pruned, got %+v", r)
		}
	}

	loserRels, err := s.ListRelations(ctx, loser)
	if err != nil {
		t.Fatalf("list relations for loser: %v", err)
	}
	if len(loserRels) != 0 {
		t.Errorf("expected no relations left pointing at the loser, got %d", len(loserRels))
	}
}

func TestDeleteRelationsForRemovesBothDirections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := insertTestMemory(t, ctx, s, "a fact")
	b := insertTestMemory(t, ctx, s, "b fact")
	if err := s.PutRelation(ctx, model.Relation{SubjectID: a, Predicate: "relates_to", ObjectID: b}); err != nil {
		t.Fatalf("put relation: %v", err)
	}
	if err := s.PutRelation(ctx, model.Relation{SubjectID: b, Predicate: "relates_to", ObjectID: a}); err != nil {
		t.Fatalf("put relation: %v", err)
	}

	if err := s.DeleteRelationsFor(ctx, a); err != nil {
		t.Fatalf("delete relations for: %v", err)
	}

	rels, err := s.ListRelations(ctx, b)
	if err != nil {
		t.Fatalf("list relations: %v", err)
	}
	if len(rels) != 0 {
		t.Errorf("expected all relations touching a to be gone, got %d", len(rels))
	}
}
