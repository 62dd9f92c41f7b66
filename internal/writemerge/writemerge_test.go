package writemerge

import (
	"context"
	"testing"

	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/store"
)

// fakeStore is a minimal store.Store fake exercising only the methods Put
// calls, following the same small-fake style used across the other
// packages' tests rather than a mocking framework.
type fakeStore struct {
	byID        map[string]*model.Memory
	vecHits     []store.VectorHit
	inserted    []store.PutParams
	updated     map[string]store.Patch
	softDeleted []string
	embeddings  map[string][]float32
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*model.Memory{}, updated: map[string]store.Patch{}, embeddings: map[string][]float32{}}
}

func (f *fakeStore) Insert(_ context.Context, p store.PutParams) (*model.Memory, error) {
	f.inserted = append(f.inserted, p)
	m := &model.Memory{ID: p.ID, Agent: p.Agent, Namespace: p.Namespace, Text: p.Text, Category: p.Category, Importance: p.Importance, Strength: 1.0}
	f.byID[p.ID] = m
	return m, nil
}
func (f *fakeStore) Get(_ context.Context, id string) (*model.Memory, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, &mockNotFound{}
	}
	return m, nil
}
func (f *fakeStore) UpdateFields(_ context.Context, id string, patch store.Patch) error {
	f.updated[id] = patch
	m := f.byID[id]
	if m == nil {
		return nil
	}
	if patch.Strength != nil {
		m.Strength = *patch.Strength
	}
	if patch.Importance != nil {
		m.Importance = *patch.Importance
	}
	if patch.ReinforceCount != nil {
		m.ReinforceCount = *patch.ReinforceCount
	}
	return nil
}
func (f *fakeStore) SoftDelete(_ context.Context, id string, _ string) error {
	f.softDeleted = append(f.softDeleted, id)
	return nil
}
func (f *fakeStore) HardDelete(context.Context, string) error { return nil }
func (f *fakeStore) SetEmbedding(_ context.Context, id string, vec []float32) error {
	f.embeddings[id] = vec
	return nil
}
func (f *fakeStore) VectorTopK(context.Context, []float32, int, model.Filter) ([]store.VectorHit, error) {
	return f.vecHits, nil
}
func (f *fakeStore) LexicalTopK(context.Context, string, int, model.Filter) ([]store.LexicalHit, error) {
	return nil, nil
}
func (f *fakeStore) ScanForMaintenance(context.Context, func(model.Memory) bool) ([]model.Memory, error) {
	return nil, nil
}
func (f *fakeStore) Pin(context.Context, string) error                               { return nil }
func (f *fakeStore) Unpin(context.Context, string) error                             { return nil }
func (f *fakeStore) PutRelation(context.Context, model.Relation) error               { return nil }
func (f *fakeStore) ListRelations(context.Context, string) ([]model.Relation, error) { return nil, nil }
func (f *fakeStore) RewriteRelations(context.Context, string, string) error          { return nil }
func (f *fakeStore) DeleteRelationsFor(context.Context, string) error                { return nil }
func (f *fakeStore) Export(context.Context, model.Filter) ([]model.Memory, error)    { return nil, nil }
func (f *fakeStore) Import(context.Context, []model.Memory) (int, int, error)        { return 0, 0, nil }
func (f *fakeStore) CacheGetEmbedding(context.Context, string) ([]float32, bool, error) {
	return nil, false, nil
}
func (f *fakeStore) CachePutEmbedding(context.Context, string, []float32) error { return nil }
func (f *fakeStore) Stats(context.Context) (store.Stats, error)                { return store.Stats{}, nil }
func (f *fakeStore) Close() error                                              { return nil }

type mockNotFound struct{}

func (m *mockNotFound) Error() string { return "not found" }

func TestPutInsertsWhenNoSimilarMatch(t *testing.T) {
	fs := newFakeStore()
	merger := New(fs, DefaultConfig())

	res, err := merger.Put(context.Background(), store.PutParams{ID: "m1", Agent: "a", Text: "brand new fact"}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res.Outcome != OutcomeInserted {
		t.Errorf("expected inserted, got %v", res.Outcome)
	}
	if len(fs.inserted) != 1 {
		t.Errorf("expected 1 insert, got %d", len(fs.inserted))
	}
}

func TestPutReinforcesOnHighSimilarity(t *testing.T) {
	fs := newFakeStore()
	fs.byID["existing"] = &model.Memory{ID: "existing", Category: model.CategoryFact, Strength: 0.5, Importance: 0.2, ReinforceCount: 0}
	fs.vecHits = []store.VectorHit{{ID: "existing", Distance: 0.05}} // similarity 0.95 >= theta 0.85

	merger := New(fs, DefaultConfig())
	res, err := merger.Put(context.Background(), store.PutParams{ID: "m2", Agent: "a", Text: "same fact again", Importance: 0.6}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res.Outcome != OutcomeReinforced {
		t.Errorf("expected reinforced, got %v", res.Outcome)
	}
	if res.MemoryID != "existing" {
		t.Errorf("expected reinforcement to target the existing memory, got %s", res.MemoryID)
	}
	if len(fs.inserted) != 0 {
		t.Errorf("expected no new insert on reinforce, got %d", len(fs.inserted))
	}
	patch := fs.updated["existing"]
	if patch.Strength == nil || *patch.Strength <= 0.5 {
		t.Errorf("expected strength to increase, got %+v", patch.Strength)
	}
	if patch.Importance == nil || *patch.Importance != 0.6 {
		t.Errorf("expected importance to take the max (0.6), got %v", patch.Importance)
	}
}

func TestPutSupersedesOnRuleConflict(t *testing.T) {
	fs := newFakeStore()
	fs.byID["rule1"] = &model.Memory{ID: "rule1", Category: model.CategoryRule, Text: "always ask before deploying", Strength: 1}
	fs.vecHits = []store.VectorHit{{ID: "rule1", Distance: 0.02}}

	merger := New(fs, DefaultConfig())
	res, err := merger.Put(context.Background(), store.PutParams{
		ID: "rule2", Agent: "a", Category: model.CategoryRule, Text: "never ask before deploying",
	}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res.Outcome != OutcomeSuperseded {
		t.Errorf("expected superseded, got %v", res.Outcome)
	}
	if len(fs.inserted) != 1 {
		t.Errorf("expected the new rule to be inserted, got %d inserts", len(fs.inserted))
	}
	if len(fs.softDeleted) != 1 || fs.softDeleted[0] != "rule1" {
		t.Errorf("expected the old rule to be soft-deleted, got %v", fs.softDeleted)
	}
}

func TestPutBelowThetaMergeInsertsFresh(t *testing.T) {
	fs := newFakeStore()
	fs.byID["existing"] = &model.Memory{ID: "existing", Category: model.CategoryFact, Strength: 0.5}
	fs.vecHits = []store.VectorHit{{ID: "existing", Distance: 0.5}} // similarity 0.5 < theta 0.85

	merger := New(fs, DefaultConfig())
	res, err := merger.Put(context.Background(), store.PutParams{ID: "m3", Agent: "a", Text: "unrelated fact"}, []float32{1, 0, 0})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if res.Outcome != OutcomeInserted {
		t.Errorf("expected inserted below theta_merge, got %v", res.Outcome)
	}
}
