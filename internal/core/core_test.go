package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcliao/agent-memory/internal/config"
	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/pool"
	"github.com/rcliao/agent-memory/internal/store"
)

// fakeStore is a minimal in-memory store.Store fake, following the same
// small-fake style used across the other packages' tests.
type fakeStore struct {
	byID        map[string]*model.Memory
	lexHits     []store.LexicalHit
	vecHits     []store.VectorHit
	pinned      map[string]bool
	softDeleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*model.Memory{}, pinned: map[string]bool{}}
}

func (f *fakeStore) Insert(_ context.Context, p store.PutParams) (*model.Memory, error) {
	now := time.Now()
	m := &model.Memory{
		ID: p.ID, Agent: p.Agent, Namespace: p.Namespace, Text: p.Text,
		NormalizedText: p.NormalizedText, Category: p.Category, Importance: p.Importance,
		Strength: 1.0, CreatedAt: now, LastReinforced: now, LastAccessed: now,
		EmbeddingStatus: model.EmbeddingPending,
	}
	f.byID[p.ID] = m
	f.lexHits = append(f.lexHits, store.LexicalHit{ID: p.ID, Score: 1})
	return m, nil
}
func (f *fakeStore) Get(_ context.Context, id string) (*model.Memory, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}
func (f *fakeStore) UpdateFields(_ context.Context, id string, patch store.Patch) error {
	m := f.byID[id]
	if m == nil {
		return nil
	}
	if patch.Importance != nil {
		m.Importance = *patch.Importance
	}
	if patch.Strength != nil {
		m.Strength = *patch.Strength
	}
	if patch.SupersededBy != nil {
		m.SupersededBy = *patch.SupersededBy
	}
	return nil
}
func (f *fakeStore) SoftDelete(_ context.Context, id, _ string) error {
	f.softDeleted = append(f.softDeleted, id)
	if m := f.byID[id]; m != nil {
		now := time.Now()
		m.SoftDeletedAt = &now
	}
	return nil
}
func (f *fakeStore) HardDelete(_ context.Context, id string) error { delete(f.byID, id); return nil }
func (f *fakeStore) SetEmbedding(_ context.Context, id string, vec []float32) error {
	if m := f.byID[id]; m != nil {
		m.Embedding = vec
		m.EmbeddingStatus = model.EmbeddingPresent
	}
	return nil
}
func (f *fakeStore) VectorTopK(context.Context, []float32, int, model.Filter) ([]store.VectorHit, error) {
	return f.vecHits, nil
}
func (f *fakeStore) LexicalTopK(_ context.Context, _ string, k int, _ model.Filter) ([]store.LexicalHit, error) {
	if k > 0 && k < len(f.lexHits) {
		return f.lexHits[:k], nil
	}
	return f.lexHits, nil
}
func (f *fakeStore) ScanForMaintenance(_ context.Context, pred func(model.Memory) bool) ([]model.Memory, error) {
	var out []model.Memory
	for _, m := range f.byID {
		if pred(*m) {
			out = append(out, *m)
		}
	}
	return out, nil
}
func (f *fakeStore) Pin(_ context.Context, id string) error {
	f.pinned[id] = true
	if m := f.byID[id]; m != nil {
		m.Pinned = true
	}
	return nil
}
func (f *fakeStore) Unpin(_ context.Context, id string) error {
	delete(f.pinned, id)
	if m := f.byID[id]; m != nil {
		m.Pinned = false
	}
	return nil
}
func (f *fakeStore) PutRelation(context.Context, model.Relation) error { return nil }
func (f *fakeStore) ListRelations(context.Context, string) ([]model.Relation, error) {
	return nil, nil
}
func (f *fakeStore) RewriteRelations(context.Context, string, string) error { return nil }
func (f *fakeStore) DeleteRelationsFor(context.Context, string) error      { return nil }
func (f *fakeStore) Export(_ context.Context, _ model.Filter) ([]model.Memory, error) {
	out := make([]model.Memory, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, *m)
	}
	return out, nil
}
func (f *fakeStore) Import(_ context.Context, records []model.Memory) (int, int, error) {
	for _, r := range records {
		rec := r
		f.byID[r.ID] = &rec
	}
	return len(records), 0, nil
}
func (f *fakeStore) CacheGetEmbedding(context.Context, string) ([]float32, bool, error) {
	return nil, false, nil
}
func (f *fakeStore) CachePutEmbedding(context.Context, string, []float32) error { return nil }
func (f *fakeStore) Stats(context.Context) (store.Stats, error) {
	active := 0
	for _, m := range f.byID {
		if m.SoftDeletedAt == nil {
			active++
		}
	}
	return store.Stats{TotalMemories: len(f.byID), ActiveMemories: active, Namespaces: map[string]int{"": active}}, nil
}
func (f *fakeStore) Close() error { return nil }

// newTestCore builds a Core whose Pool.Opener hands back one fakeStore per
// agent, registered in the returned map for test assertions. The embedder
// points at an unroutable address so every Embed call fails fast, exercising
// the degrade-to-lexical-only path without a real network dependency.
func newTestCore(t *testing.T) (*Core, map[string]*fakeStore) {
	t.Helper()
	registry := map[string]*fakeStore{}
	opener := func(_ string, agent string) (store.Store, error) {
		s := newFakeStore()
		registry[agent] = s
		return s, nil
	}
	cfg := config.FromEnv()
	cfg.DataDir = t.TempDir()
	cfg.EmbedBaseURL = "http://127.0.0.1:1"

	c, err := New(cfg, opener, nil)
	if err != nil {
		t.Fatalf("new core: %v", err)
	}
	return c, registry
}

func TestRecallSkipsUntriggeredQuery(t *testing.T) {
	c, registry := newTestCore(t)
	resp, err := c.Recall(context.Background(), RecallParams{Agent: "a", Query: "ok"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if resp.Triggered {
		t.Error("expected a one-word ack not to trigger recall")
	}
	if len(registry) != 0 {
		t.Error("expected no store to be opened for an untriggered query")
	}
}

func TestStoreThenRecallFindsLexicalMatch(t *testing.T) {
	c, registry := newTestCore(t)
	ctx := context.Background()

	res, err := c.Store(ctx, "agent-a", "", CaptureMessage{
		Text: "we decided the deployment policy is strict review", Category: model.CategoryFact,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if res.MemoryID == "" {
		t.Fatal("expected a memory id")
	}

	resp, err := c.Recall(ctx, RecallParams{Agent: "agent-a", Query: "what did we decide about deployment policy"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if !resp.Triggered {
		t.Fatal("expected 'we decided' phrasing to trigger recall")
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected at least one recalled result from the lexical layer")
	}
	if resp.SearchMode != model.SearchDegradedNoVector {
		t.Errorf("expected degraded-no-vector search mode, got %s", resp.SearchMode)
	}
	if !resp.Degraded {
		t.Error("expected Degraded to be true when the vector layer is unavailable")
	}
	if _, ok := registry["agent-a"]; !ok {
		t.Error("expected agent-a's store to have been opened")
	}
}

func TestRuleSetsImportanceAndPins(t *testing.T) {
	c, registry := newTestCore(t)
	res, err := c.Rule(context.Background(), "a", "", "always back up before deploying")
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	m := registry["a"].byID[res.MemoryID]
	if m == nil {
		t.Fatal("expected the rule memory to exist")
	}
	if m.Importance != 1.0 {
		t.Errorf("expected importance 1.0, got %v", m.Importance)
	}
	if !m.Pinned {
		t.Error("expected the rule to be pinned")
	}
}

func TestPinAndUnpin(t *testing.T) {
	c, registry := newTestCore(t)
	ctx := context.Background()
	res, err := c.Store(ctx, "a", "", CaptureMessage{Text: "some fact worth keeping around"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := c.Pin(ctx, "a", res.MemoryID); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if !registry["a"].pinned[res.MemoryID] {
		t.Error("expected memory to be pinned")
	}

	if err := c.Unpin(ctx, "a", res.MemoryID); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if registry["a"].pinned[res.MemoryID] {
		t.Error("expected memory to be unpinned")
	}
}

func TestForgetByID(t *testing.T) {
	c, registry := newTestCore(t)
	ctx := context.Background()
	res, err := c.Store(ctx, "a", "", CaptureMessage{Text: "a memory nobody needs anymore"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := c.Forget(ctx, "a", res.MemoryID, "")
	if err != nil {
		t.Fatalf("forget: %v", err)
	}
	if got != res.MemoryID {
		t.Errorf("expected forget to target %s, got %s", res.MemoryID, got)
	}
	if len(registry["a"].softDeleted) != 1 {
		t.Errorf("expected one soft delete, got %d", len(registry["a"].softDeleted))
	}
}

func TestForgetWithoutIDOrQueryFails(t *testing.T) {
	c, _ := newTestCore(t)
	if _, err := c.Forget(context.Background(), "a", "", ""); err == nil {
		t.Error("expected an error when neither id nor query is given")
	}
}

func TestStatsAggregatesAcrossAgents(t *testing.T) {
	c, _ := newTestCore(t)
	ctx := context.Background()
	if _, err := c.Store(ctx, "a", "", CaptureMessage{Text: "agent a's memory"}); err != nil {
		t.Fatalf("store a: %v", err)
	}
	if _, err := c.Store(ctx, "b", "", CaptureMessage{Text: "agent b's memory"}); err != nil {
		t.Fatalf("store b: %v", err)
	}

	stats, err := c.Stats(ctx, pool.AllAgents)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 agents, got %d", len(stats))
	}
	if stats["a"].ActiveMemories != 1 || stats["b"].ActiveMemories != 1 {
		t.Errorf("unexpected per-agent active counts: %+v", stats)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	c, registry := newTestCore(t)
	ctx := context.Background()
	res, err := c.Store(ctx, "a", "ns1", CaptureMessage{Text: "exportable fact"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	records, err := c.Export(ctx, "a", model.Filter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 1 || records[0].ID != res.MemoryID {
		t.Fatalf("expected to export the stored memory, got %+v", records)
	}

	imported, skipped, err := c.Import(ctx, "b", records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 1 || skipped != 0 {
		t.Errorf("expected 1 imported, 0 skipped, got %d/%d", imported, skipped)
	}
	if _, ok := registry["b"].byID[res.MemoryID]; !ok {
		t.Error("expected the imported memory to exist in agent b's store")
	}
}

func TestDecayFansOutAcrossAllAgents(t *testing.T) {
	c, registry := newTestCore(t)
	ctx := context.Background()
	res, err := c.Store(ctx, "a", "", CaptureMessage{Text: "a memory that will decay"})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	m := registry["a"].byID[res.MemoryID]
	m.LastReinforced = time.Now().Add(-60 * 24 * time.Hour)
	m.Strength = 0.9

	reports, err := c.Decay(ctx, pool.AllAgents)
	if err != nil {
		t.Fatalf("decay: %v", err)
	}
	report, ok := reports["a"]
	if !ok || report.Decayed != 1 {
		t.Errorf("expected agent a to report 1 decayed memory, got %+v", reports)
	}
	if m.Strength >= 0.9 {
		t.Errorf("expected strength to have decayed below 0.9, got %v", m.Strength)
	}
}
