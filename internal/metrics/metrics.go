// Package metrics implements MetricsHub from spec.md §4.12: process-wide
// counters and histograms for request volume, cache hits/misses, recall
// latency per stage, embed outcomes, and per-agent storage stats, exposed
// both as Prometheus text exposition and as a JSON snapshot. Grounded on
// vasic-digital-SuperAgent's internal/observability/metrics/collector.go
// (a Collector struct of *prometheus.CounterVec/*HistogramVec/*GaugeVec
// fields built in a constructor and exposed via promhttp.Handler()).
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcliao/agent-memory/internal/store"
)

// RecallStage names the three latency checkpoints spec.md §4.12 lists.
type RecallStage string

const (
	StageFused           RecallStage = "fused"
	StagePrimaryRerank   RecallStage = "primary_rerank"
	StageSecondaryRerank RecallStage = "secondary_rerank"
)

// Hub is the process-wide metrics registry. One Hub is constructed at
// startup and threaded through internal/core the way the teacher's
// *slog.Logger is.
type Hub struct {
	registry *prometheus.Registry

	requestCount  *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	recallLatency *prometheus.HistogramVec
	embedSuccess  prometheus.Counter
	embedFail     prometheus.Counter
	embedCircuit  prometheus.Counter
	agentMemories *prometheus.GaugeVec
	agentVectorless *prometheus.GaugeVec
	agentDiskBytes  *prometheus.GaugeVec

	mu       sync.Mutex
	snapshot Snapshot
}

// Snapshot mirrors the same counters in a form cheap to marshal to
// JSON without reaching into Prometheus's internal metric representation.
type Snapshot struct {
	RequestsByEndpoint map[string]int64           `json:"requests_by_endpoint"`
	CacheHits          int64                       `json:"cache_hits"`
	CacheMisses        int64                       `json:"cache_misses"`
	EmbedSuccess       int64                       `json:"embed_success"`
	EmbedFail          int64                       `json:"embed_fail"`
	EmbedCircuitOpens  int64                       `json:"embed_circuit_opens"`
	AgentStats         map[string]store.Stats      `json:"agent_stats"`
}

// New builds a Hub with its own Prometheus registry (never the global
// default registry, so tests and multiple in-process instances don't
// collide on metric registration).
func New() *Hub {
	reg := prometheus.NewRegistry()

	h := &Hub{
		registry: reg,
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_memory_requests_total",
			Help: "Total requests by endpoint and status.",
		}, []string{"endpoint", "status"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_memory_cache_hits_total",
			Help: "Total RecallCache hits.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_memory_cache_misses_total",
			Help: "Total RecallCache misses.",
		}, []string{"cache"}),
		recallLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_memory_recall_latency_seconds",
			Help:    "Recall pipeline latency by stage.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"stage"}),
		embedSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_memory_embed_success_total",
			Help: "Total successful embedding calls.",
		}),
		embedFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_memory_embed_fail_total",
			Help: "Total failed embedding calls.",
		}),
		embedCircuit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_memory_embed_circuit_open_total",
			Help: "Total times the embedder's circuit breaker opened.",
		}),
		agentMemories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agent_memory_active_memories",
			Help: "Active memory count per agent.",
		}, []string{"agent"}),
		agentVectorless: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agent_memory_vectorless_memories",
			Help: "Vectorless (not-yet-embedded) memory count per agent.",
		}, []string{"agent"}),
		agentDiskBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "agent_memory_disk_usage_bytes",
			Help: "Store database size in bytes per agent.",
		}, []string{"agent"}),
		snapshot: Snapshot{
			RequestsByEndpoint: map[string]int64{},
			AgentStats:         map[string]store.Stats{},
		},
	}

	reg.MustRegister(
		h.requestCount, h.cacheHits, h.cacheMisses, h.recallLatency,
		h.embedSuccess, h.embedFail, h.embedCircuit,
		h.agentMemories, h.agentVectorless, h.agentDiskBytes,
	)
	return h
}

// ObserveRequest records one completed request against an endpoint.
func (h *Hub) ObserveRequest(endpoint, status string) {
	h.requestCount.WithLabelValues(endpoint, status).Inc()
	h.mu.Lock()
	h.snapshot.RequestsByEndpoint[endpoint]++
	h.mu.Unlock()
}

// ObserveCacheHit records a RecallCache hit.
func (h *Hub) ObserveCacheHit() {
	h.cacheHits.WithLabelValues("recall").Inc()
	h.mu.Lock()
	h.snapshot.CacheHits++
	h.mu.Unlock()
}

// ObserveCacheMiss records a RecallCache miss.
func (h *Hub) ObserveCacheMiss() {
	h.cacheMisses.WithLabelValues("recall").Inc()
	h.mu.Lock()
	h.snapshot.CacheMisses++
	h.mu.Unlock()
}

// ObserveRecallLatency records one stage's duration in seconds.
func (h *Hub) ObserveRecallLatency(stage RecallStage, seconds float64) {
	h.recallLatency.WithLabelValues(string(stage)).Observe(seconds)
}

// ObserveEmbedSuccess records a successful embedding call.
func (h *Hub) ObserveEmbedSuccess() {
	h.embedSuccess.Inc()
	h.mu.Lock()
	h.snapshot.EmbedSuccess++
	h.mu.Unlock()
}

// ObserveEmbedFail records a failed embedding call.
func (h *Hub) ObserveEmbedFail() {
	h.embedFail.Inc()
	h.mu.Lock()
	h.snapshot.EmbedFail++
	h.mu.Unlock()
}

// ObserveEmbedCircuitOpen records the embedder's circuit breaker opening.
func (h *Hub) ObserveEmbedCircuitOpen() {
	h.embedCircuit.Inc()
	h.mu.Lock()
	h.snapshot.EmbedCircuitOpens++
	h.mu.Unlock()
}

// SetAgentStats updates the per-agent gauges from a fresh Store.Stats read.
func (h *Hub) SetAgentStats(agent string, stats store.Stats) {
	h.agentMemories.WithLabelValues(agent).Set(float64(stats.ActiveMemories))
	h.agentVectorless.WithLabelValues(agent).Set(float64(stats.VectorlessCount))
	h.agentDiskBytes.WithLabelValues(agent).Set(float64(stats.DBSizeBytes))
	h.mu.Lock()
	h.snapshot.AgentStats[agent] = stats
	h.mu.Unlock()
}

// Handler returns the Prometheus text-exposition HTTP handler spec.md
// §4.12 requires for "common scrape tooling."
func (h *Hub) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// JSON returns a structured snapshot for the "structured JSON" exposition
// format spec.md §4.12 also requires, independent of the registry's own
// wire format.
func (h *Hub) JSON() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := Snapshot{
		RequestsByEndpoint: make(map[string]int64, len(h.snapshot.RequestsByEndpoint)),
		CacheHits:          h.snapshot.CacheHits,
		CacheMisses:        h.snapshot.CacheMisses,
		EmbedSuccess:       h.snapshot.EmbedSuccess,
		EmbedFail:          h.snapshot.EmbedFail,
		EmbedCircuitOpens:  h.snapshot.EmbedCircuitOpens,
		AgentStats:         make(map[string]store.Stats, len(h.snapshot.AgentStats)),
	}
	for k, v := range h.snapshot.RequestsByEndpoint {
		out.RequestsByEndpoint[k] = v
	}
	for k, v := range h.snapshot.AgentStats {
		out.AgentStats[k] = v
	}
	return out
}
