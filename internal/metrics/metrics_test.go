package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rcliao/agent-memory/internal/store"
)

func TestObserveRequestUpdatesJSONSnapshot(t *testing.T) {
	h := New()
	h.ObserveRequest("/v1/recall", "200")
	h.ObserveRequest("/v1/recall", "200")
	h.ObserveRequest("/v1/capture", "500")

	snap := h.JSON()
	if snap.RequestsByEndpoint["/v1/recall"] != 2 {
		t.Errorf("expected 2 recall requests, got %d", snap.RequestsByEndpoint["/v1/recall"])
	}
	if snap.RequestsByEndpoint["/v1/capture"] != 1 {
		t.Errorf("expected 1 capture request, got %d", snap.RequestsByEndpoint["/v1/capture"])
	}
}

func TestObserveCacheHitAndMiss(t *testing.T) {
	h := New()
	h.ObserveCacheHit()
	h.ObserveCacheHit()
	h.ObserveCacheMiss()

	snap := h.JSON()
	if snap.CacheHits != 2 || snap.CacheMisses != 1 {
		t.Errorf("unexpected cache counters: hits=%d misses=%d", snap.CacheHits, snap.CacheMisses)
	}
}

func TestObserveEmbedOutcomes(t *testing.T) {
	h := New()
	h.ObserveEmbedSuccess()
	h.ObserveEmbedSuccess()
	h.ObserveEmbedFail()
	h.ObserveEmbedCircuitOpen()

	snap := h.JSON()
	if snap.EmbedSuccess != 2 || snap.EmbedFail != 1 || snap.EmbedCircuitOpens != 1 {
		t.Errorf("unexpected embed counters: %+v", snap)
	}
}

func TestSetAgentStatsPopulatesSnapshot(t *testing.T) {
	h := New()
	h.SetAgentStats("agent-a", store.Stats{ActiveMemories: 42, VectorlessCount: 3, DBSizeBytes: 1024})

	snap := h.JSON()
	got, ok := snap.AgentStats["agent-a"]
	if !ok {
		t.Fatal("expected agent-a stats in snapshot")
	}
	if got.ActiveMemories != 42 || got.VectorlessCount != 3 || got.DBSizeBytes != 1024 {
		t.Errorf("unexpected agent stats: %+v", got)
	}
}

func TestHandlerServesPrometheusTextExposition(t *testing.T) {
	h := New()
	h.ObserveCacheHit()
	h.ObserveRequest("/v1/recall", "200")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "agent_memory_cache_hits_total") {
		t.Errorf("expected cache hits metric in exposition, got:\n%s", body)
	}
	if !strings.Contains(body, "agent_memory_requests_total") {
		t.Errorf("expected requests metric in exposition, got:\n%s", body)
	}
}

func TestRecallLatencyDoesNotPanicAcrossStages(t *testing.T) {
	h := New()
	h.ObserveRecallLatency(StageFused, 0.01)
	h.ObserveRecallLatency(StagePrimaryRerank, 0.02)
	h.ObserveRecallLatency(StageSecondaryRerank, 0.2)
}
