package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rcliao/agent-memory/internal/config"
	"github.com/rcliao/agent-memory/internal/core"
	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/pool"
	"github.com/rcliao/agent-memory/internal/store"
)

// fakeStore is a minimal in-memory store.Store fake, the same shape the
// core/writemerge/lifecycle packages each keep for their own tests.
type fakeStore struct {
	byID map[string]*model.Memory
}

func newFakeStore() *fakeStore { return &fakeStore{byID: map[string]*model.Memory{}} }

func (f *fakeStore) Insert(_ context.Context, p store.PutParams) (*model.Memory, error) {
	now := time.Now()
	m := &model.Memory{
		ID: p.ID, Agent: p.Agent, Namespace: p.Namespace, Text: p.Text,
		NormalizedText: p.NormalizedText, Category: p.Category, Importance: p.Importance,
		Strength: 1.0, CreatedAt: now, LastReinforced: now, LastAccessed: now,
		EmbeddingStatus: model.EmbeddingPending,
	}
	f.byID[p.ID] = m
	return m, nil
}
func (f *fakeStore) Get(_ context.Context, id string) (*model.Memory, error) { return f.byID[id], nil }
func (f *fakeStore) UpdateFields(context.Context, string, store.Patch) error { return nil }
func (f *fakeStore) SoftDelete(context.Context, string, string) error       { return nil }
func (f *fakeStore) HardDelete(context.Context, string) error               { return nil }
func (f *fakeStore) SetEmbedding(context.Context, string, []float32) error  { return nil }
func (f *fakeStore) VectorTopK(context.Context, []float32, int, model.Filter) ([]store.VectorHit, error) {
	return nil, nil
}
func (f *fakeStore) LexicalTopK(context.Context, string, int, model.Filter) ([]store.LexicalHit, error) {
	var hits []store.LexicalHit
	for id := range f.byID {
		hits = append(hits, store.LexicalHit{ID: id, Score: 1})
	}
	return hits, nil
}
func (f *fakeStore) ScanForMaintenance(context.Context, func(model.Memory) bool) ([]model.Memory, error) {
	return nil, nil
}
func (f *fakeStore) Pin(context.Context, string) error                            { return nil }
func (f *fakeStore) Unpin(context.Context, string) error                         { return nil }
func (f *fakeStore) PutRelation(context.Context, model.Relation) error           { return nil }
func (f *fakeStore) ListRelations(context.Context, string) ([]model.Relation, error) {
	return nil, nil
}
func (f *fakeStore) RewriteRelations(context.Context, string, string) error { return nil }
func (f *fakeStore) DeleteRelationsFor(context.Context, string) error       { return nil }
func (f *fakeStore) Export(context.Context, model.Filter) ([]model.Memory, error) {
	var out []model.Memory
	for _, m := range f.byID {
		out = append(out, *m)
	}
	return out, nil
}
func (f *fakeStore) Import(context.Context, []model.Memory) (int, int, error) { return 0, 0, nil }
func (f *fakeStore) CacheGetEmbedding(context.Context, string) ([]float32, bool, error) {
	return nil, false, nil
}
func (f *fakeStore) CachePutEmbedding(context.Context, string, []float32) error { return nil }
func (f *fakeStore) Stats(context.Context) (store.Stats, error) {
	return store.Stats{TotalMemories: len(f.byID), ActiveMemories: len(f.byID)}, nil
}
func (f *fakeStore) Close() error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.FromEnv()
	cfg.DataDir = t.TempDir()
	cfg.EmbedBaseURL = "http://127.0.0.1:1"
	opener := func(dbPath, agent string) (store.Store, error) { return newFakeStore(), nil }
	c, err := core.New(cfg, pool.Opener(opener), slog.Default())
	if err != nil {
		t.Fatalf("core.New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return NewServer(c, slog.Default())
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	if b, err := io.ReadAll(resp.Body); err == nil && len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, "GET", "/v1/health", nil)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRecallUntriggeredShortCircuits(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, "POST", "/v1/recall", map[string]any{
		"query": "ok",
		"agent": "main",
	})
	if status != 200 {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if triggered, _ := body["Triggered"].(bool); triggered {
		t.Errorf("expected an untriggered greeting-like query, got triggered=true: %v", body)
	}
}

func TestStoreThenRecallDegradedLexical(t *testing.T) {
	s := newTestServer(t)

	status, _ := doJSON(t, s, "POST", "/v1/store", map[string]any{
		"agent": "main",
		"text":  "user prefers dark mode",
	})
	if status != 200 {
		t.Fatalf("store status = %d", status)
	}

	status, body := doJSON(t, s, "POST", "/v1/recall", map[string]any{
		"agent": "main",
		"query": "what is the user's preference",
	})
	if status != 200 {
		t.Fatalf("recall status = %d, body = %v", status, body)
	}
	results, _ := body["Results"].([]any)
	if len(results) == 0 {
		t.Errorf("expected at least one degraded-lexical result, got %v", body)
	}
}

func TestPinUnpinRoundTrip(t *testing.T) {
	s := newTestServer(t)
	status, _ := doJSON(t, s, "POST", "/v1/pin", map[string]any{"agent": "main", "id": "m1"})
	if status != 200 {
		t.Fatalf("pin status = %d", status)
	}
	status, _ = doJSON(t, s, "POST", "/v1/unpin", map[string]any{"agent": "main", "id": "m1"})
	if status != 200 {
		t.Fatalf("unpin status = %d", status)
	}
}

func TestMetricsEndpointsServe(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, "GET", "/v1/metrics", nil)
	if status != 200 {
		t.Fatalf("json metrics status = %d", status)
	}
	if body == nil {
		t.Error("expected a non-nil JSON snapshot")
	}

	req := httptest.NewRequest("GET", "/v1/metrics/prometheus", nil)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("prometheus metrics status = %d", resp.StatusCode)
	}
}
