// Package rerank implements the Reranker from spec.md §4.8: a primary
// inline cross-encoder pass, adaptive confidence gating, an MMR diversity
// post-pass, and a secondary async pass that rewrites the RecallCache.
// Grounded on original_source/agent_memory/reranker.py's model presets and
// TTL score cache, translated to a pluggable CrossEncoderModel interface
// since no cross-encoder inference library appears anywhere in the example
// pack (see DESIGN.md).
package rerank

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/agent-memory/internal/model"
)

// ModelPresets mirrors reranker.py's MODEL_PRESETS table: named presets that
// resolve to a model identity string, carried without loading real model
// weights — CrossEncoderModel implementations decide what, if anything, a
// preset name means.
var ModelPresets = map[string]string{
	"fast":     "cross-encoder/ms-marco-MiniLM-L-6-v2",
	"balanced": "cross-encoder/ms-marco-MiniLM-L-12-v2",
	"quality":  "BAAI/bge-reranker-v2-m3",
}

// ResolveModel maps a preset name to its model identity, passing literal
// identifiers through unchanged.
func ResolveModel(name string) string {
	if m, ok := ModelPresets[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return name
}

// CrossEncoderModel scores how relevant a document is to a query, in
// [0,1]. Predict may be called with a batch larger than one for
// efficiency; len(docs) == len(scores) on success.
type CrossEncoderModel interface {
	Predict(ctx context.Context, query string, docs []string) ([]float64, error)
}

// LexicalOverlapModel is the default CrossEncoderModel: a token-overlap
// heuristic standing in for a real cross-encoder. It never fails, so it
// always satisfies the "optional-by-design, graceful fallback" contract
// reranker.py documents for a missing sentence-transformers dependency.
type LexicalOverlapModel struct{}

func (LexicalOverlapModel) Predict(_ context.Context, query string, docs []string) ([]float64, error) {
	qTokens := tokenSet(query)
	out := make([]float64, len(docs))
	for i, d := range docs {
		out[i] = jaccard(qTokens, tokenSet(d))
	}
	return out, nil
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, f := range strings.Fields(strings.ToLower(s)) {
		set[f] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// scoreCacheEntry is one TTL-cached (query, doc_id) score.
type scoreCacheEntry struct {
	score float64
	at    time.Time
}

// ScoreCache is the bounded TTL cache reranker.py keeps to skip redundant
// forward passes, using the same dict+sorted-eviction scheme: when full, the
// entries are sorted by insertion time and the oldest 20% are dropped. A
// lookup does not refresh an entry's time.
type ScoreCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]scoreCacheEntry
}

// NewScoreCache builds a cache with the given TTL and max entry count.
func NewScoreCache(ttl time.Duration, maxSize int) *ScoreCache {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &ScoreCache{ttl: ttl, maxSize: maxSize, entries: map[string]scoreCacheEntry{}}
}

func cacheKey(query, docID string) string {
	h := sha1.New()
	h.Write([]byte(query))
	h.Write([]byte{'\n'})
	h.Write([]byte(docID))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ScoreCache) get(query, docID string, now time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(query, docID)
	e, ok := c.entries[k]
	if !ok {
		return 0, false
	}
	if now.Sub(e.at) > c.ttl {
		delete(c.entries, k)
		return 0, false
	}
	return e.score, true
}

func (c *ScoreCache) put(query, docID string, score float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(query, docID)] = scoreCacheEntry{score: score, at: now}
	if len(c.entries) <= c.maxSize {
		return
	}
	// Evict the oldest 20%, matching reranker.py's _cache_put eviction.
	type kv struct {
		k  string
		at time.Time
	}
	all := make([]kv, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, kv{k, e.at})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	drop := c.maxSize / 5
	if drop < 1 {
		drop = 1
	}
	for i := 0; i < drop && i < len(all); i++ {
		delete(c.entries, all[i].k)
	}
}

// Config configures one reranker pass.
type Config struct {
	Enabled     bool
	Model       string
	TopK        int
	Weight      float64
	MaxDocChars int
	CacheTTL    time.Duration
	CacheMax    int
}

// Reranker runs a cross-encoder pass over a candidate set.
type Reranker struct {
	cfg   Config
	model CrossEncoderModel
	cache *ScoreCache
}

// New builds a Reranker. model defaults to LexicalOverlapModel if nil.
func New(cfg Config, model CrossEncoderModel) *Reranker {
	if model == nil {
		model = LexicalOverlapModel{}
	}
	return &Reranker{cfg: cfg, model: model, cache: NewScoreCache(cfg.CacheTTL, cfg.CacheMax)}
}

// Config returns the Reranker's configuration, letting callers check
// Enabled before deciding whether a pass is worth running at all.
func (r *Reranker) Config() Config {
	return r.cfg
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// Score reranks results[:cfg.TopK] against query, filling in
// Scores.RerankerPrimary or RerankerSecond per which, and re-blends Score by
// cfg.Weight. Results beyond TopK are left untouched.
func (r *Reranker) Score(ctx context.Context, query string, results []model.RecallResult, which string, now time.Time) ([]model.RecallResult, error) {
	if !r.cfg.Enabled || len(results) == 0 {
		return results, nil
	}

	k := r.cfg.TopK
	if k <= 0 || k > len(results) {
		k = len(results)
	}

	docs := make([]string, 0, k)
	idxs := make([]int, 0, k)
	for i := 0; i < k; i++ {
		text := truncate(results[i].Memory.Text, r.cfg.MaxDocChars)
		if s, ok := r.cache.get(query, results[i].Memory.ID, now); ok {
			applyRerankScore(&results[i], s, which, r.cfg.Weight)
			continue
		}
		docs = append(docs, text)
		idxs = append(idxs, i)
	}

	if len(docs) == 0 {
		return results, nil
	}

	scores, err := r.model.Predict(ctx, query, docs)
	if err != nil {
		// A reranker failure degrades to the unreranked fused score, never
		// aborts recall, matching reranker.py returning [] on model failure.
		return results, nil
	}
	for j, idx := range idxs {
		if j >= len(scores) {
			break
		}
		r.cache.put(query, results[idx].Memory.ID, scores[j], now)
		applyRerankScore(&results[idx], scores[j], which, r.cfg.Weight)
	}
	return results, nil
}

func applyRerankScore(res *model.RecallResult, score float64, which string, weight float64) {
	if which == "secondary" {
		res.Scores.RerankerSecond = score
		res.Scores.HasSecondary = true
	} else {
		res.Scores.RerankerPrimary = score
	}
	res.Score = res.Score*(1-weight) + score*weight
	res.ConfidenceTier = model.TierFromScore(res.Score)
}

// ShouldGate reports whether the primary rerank pass should run at all: if
// the top-2 fused scores are already well separated, spending a reranker
// pass adds latency without changing the outcome. τ_confident is the
// minimum spread that skips reranking.
func ShouldGate(results []model.RecallResult, tauConfident float64) bool {
	if len(results) < 2 {
		return true // no top-2 spread to measure, so the pass runs
	}
	spread := results[0].Score - results[1].Score
	return spread <= tauConfident
}

// MMRDiversify re-orders the top-N results to trade a little relevance for
// diversity, per spec.md §4.8's MMR post-pass (λ=0.7 by default): greedily
// pick the next result maximizing λ·relevance − (1−λ)·max-similarity to
// what's already chosen, using the Jaccard overlap of the results'
// NormalizedText token sets as the similarity.
func MMRDiversify(results []model.RecallResult, n int, lambda float64) []model.RecallResult {
	if n <= 0 || n > len(results) {
		n = len(results)
	}
	if n == 0 {
		return results
	}

	remaining := append([]model.RecallResult(nil), results...)
	selected := make([]model.RecallResult, 0, n)

	for len(selected) < n && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if sim := textOverlap(cand.Memory.NormalizedText, sel.Memory.NormalizedText); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*cand.Score - (1-lambda)*maxSim
			if mmr > bestScore {
				bestScore = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return append(selected, remaining...)
}

func textOverlap(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}
