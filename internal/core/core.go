// Package core wires every engine component into the top-level operations
// spec.md §6's HTTP surface describes: Recall, Capture, Store, Rule,
// Forget, Pin/Unpin, Decay/Consolidate/Compress/GC, AmnesiaCheck, Stats,
// Export/Import. Grounded on the teacher's internal/cli commands, each of
// which opens a Store and runs one operation against it; Core generalizes
// that one-shot-per-command shape into a long-lived struct threading
// config, the StoragePool, and MetricsHub through every call the way a
// long-running daemon (rather than the teacher's one-shot CLI process)
// needs to.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/rcliao/agent-memory/internal/cache"
	"github.com/rcliao/agent-memory/internal/candidate"
	"github.com/rcliao/agent-memory/internal/config"
	"github.com/rcliao/agent-memory/internal/embedder"
	"github.com/rcliao/agent-memory/internal/fuse"
	"github.com/rcliao/agent-memory/internal/lifecycle"
	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/metrics"
	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/normalizer"
	"github.com/rcliao/agent-memory/internal/pool"
	"github.com/rcliao/agent-memory/internal/rerank"
	"github.com/rcliao/agent-memory/internal/store"
	"github.com/rcliao/agent-memory/internal/trigger"
	"github.com/rcliao/agent-memory/internal/writemerge"
)

// candidateOverfetchK is the k passed to CandidateGen, which fetches
// k*OverfetchMultiplier raw candidates per layer; fusion then keeps twice
// the caller's limit, and the final results are cut to the limit itself.
const candidateOverfetchK = 40

// gateSpreadThreshold is the top-2 score spread below which reranking is
// judged worth its cost (rerank.ShouldGate).
const gateSpreadThreshold = 0.15

// mmrLambda is the relevance/diversity tradeoff for the MMR post-pass.
const mmrLambda = 0.7

// Core is the fully wired engine. One Core is constructed at process
// startup (CLI or server) and is safe for concurrent use across agents.
type Core struct {
	Config  *config.Config
	Pool    *pool.Pool
	Metrics *metrics.Hub
	Log     *slog.Logger

	norm        *normalizer.Normalizer
	trig        *trigger.Scorer
	fuser       *fuse.Fuser
	primary     *rerank.Reranker
	secondary   *rerank.Reranker
	recallCache *cache.RecallCache
	memCache    embedder.MemoryCache

	mu        sync.Mutex
	embedders map[string]*embedder.Embedder
}

// New builds a Core from a resolved Config. No agent Store is opened until
// first use (Pool.Get is lazy).
func New(cfg *config.Config, opener pool.Opener, log *slog.Logger) (*Core, error) {
	if log == nil {
		log = slog.Default()
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 26,
		BufferItems: 64,
	})
	if err != nil {
		return nil, memerr.Wrap(memerr.KindConfig, "build embedding memory cache", false, err)
	}

	c := &Core{
		Config:      cfg,
		Metrics:     metrics.New(),
		Log:         log,
		norm:        normalizer.New(nil),
		fuser:       fuse.New(cfg.Weights),
		recallCache: cache.New(cfg.RecallCacheTTL),
		memCache:    ristrettoCache,
		embedders:   map[string]*embedder.Embedder{},
	}
	c.trig = trigger.New(c.norm)
	c.Pool = pool.New(cfg.DataDir, opener, log)
	c.primary = rerank.New(toRerankConfig(cfg.RerankerPrimary), rerank.LexicalOverlapModel{})
	c.secondary = rerank.New(toRerankConfig(cfg.RerankerSecondary), rerank.LexicalOverlapModel{})
	return c, nil
}

func toRerankConfig(rc config.RerankerConfig) rerank.Config {
	return rerank.Config{
		Enabled:     rc.Enabled,
		Model:       rc.Model,
		TopK:        rc.TopK,
		Weight:      rc.Weight,
		MaxDocChars: rc.MaxDocChars,
		CacheTTL:    time.Minute,
		CacheMax:    5000,
	}
}

// embedderFor returns the Embedder bound to agent's own persistent cache,
// lazily constructing one the first time the agent is used. The tier-1
// in-process cache and HTTP client config are shared across agents; only
// the tier-2 persistent cache (the agent's own Store) differs.
func (c *Core) embedderFor(agent string, s store.Store) *embedder.Embedder {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.embedders[agent]; ok {
		return e
	}
	ecfg := embedder.DefaultConfig()
	ecfg.BaseURL = c.Config.EmbedBaseURL
	ecfg.APIKey = c.Config.EmbedAPIKey
	ecfg.Model = c.Config.EmbedModel
	ecfg.Dimensions = c.Config.Dimensions
	ecfg.MaxChars = c.Config.MaxEmbedChars
	e := embedder.New(ecfg, s, c.memCache, c.Log)
	c.embedders[agent] = e
	return e
}

// RecallParams is the input to Recall, mirroring /v1/recall's request body.
type RecallParams struct {
	Agent     string
	Namespace string
	Query     string
	Limit     int
	Filter    model.Filter
	MinScore  float64
}

// RecallResponse is /v1/recall's response shape.
type RecallResponse struct {
	Results    []model.RecallResult
	Triggered  bool
	SearchMode model.SearchMode
	Degraded   bool
	Cached     bool
}

// Recall implements the full pipeline from spec.md §4.5-§4.9: trigger
// check, normalize, RecallCache lookup, CandidateGen, Fuse, primary rerank
// inline, and an async secondary rerank pass that refreshes the cache entry
// in the background.
func (c *Core) Recall(ctx context.Context, p RecallParams) (RecallResponse, error) {
	triggered := c.trig.Triggered(p.Query)
	if !triggered {
		return RecallResponse{Triggered: false}, nil
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	if p.Agent == pool.AllAgents {
		return c.recallAll(ctx, p, limit)
	}

	agent, err := pool.ValidateAgentID(p.Agent)
	if err != nil {
		return RecallResponse{}, err
	}
	normalized := c.norm.Normalize(p.Query)
	filter := p.Filter
	filter.Agent = agent
	if p.Namespace != "" {
		filter.Namespace = p.Namespace
	}

	key := cache.Key{
		Agent:           agent,
		Namespace:       p.Namespace,
		NormalizedQuery: normalized.Folded,
		FilterHash: fmt.Sprintf("%s|%t|%g|%v|%v", filter.Category, filter.IncludeSoftDeleted,
			filter.MinImportance, filter.TimeRangeStart, filter.TimeRangeEnd),
		MinScore: p.MinScore,
	}
	now := time.Now()
	if cached, _, ok := c.recallCache.Lookup(key, now); ok {
		c.Metrics.ObserveCacheHit()
		results := capResults(cached, limit, p.MinScore)
		for i := range results {
			results[i].Cached = true
		}
		return RecallResponse{Results: results, Triggered: true, Cached: true}, nil
	}
	c.Metrics.ObserveCacheMiss()

	s, err := c.Pool.Get(agent)
	if err != nil {
		return RecallResponse{}, err
	}

	var queryVec []float32
	emb := c.embedderFor(agent, s)
	vec, embErr := emb.Embed(ctx, normalized.Folded)
	if embErr == nil {
		queryVec = vec
		c.Metrics.ObserveEmbedSuccess()
	} else {
		c.Metrics.ObserveEmbedFail()
	}

	fused, mode, err := c.fuseCandidates(ctx, s, queryVec, normalized.Folded, limit, filter, now)
	if err != nil {
		return RecallResponse{}, err
	}

	if c.primary.Config().Enabled && rerank.ShouldGate(fused, gateSpreadThreshold) {
		fused, err = c.primary.Score(ctx, normalized.Folded, fused, "primary", now)
		if err != nil {
			return RecallResponse{}, err
		}
		fused = rerank.MMRDiversify(fused, limit, mmrLambda)
	}

	gen := c.recallCache.Put(key, fused, now)

	if c.secondary.Config().Enabled {
		go c.runSecondaryRerank(agent, key, normalized.Folded, fused, gen)
	}

	degraded := mode != model.SearchFull
	results := capResults(fused, limit, p.MinScore)
	return RecallResponse{Results: results, Triggered: true, SearchMode: mode, Degraded: degraded}, nil
}

// recallAll implements agent="all" per spec.md §4.2/§8: a unioned query
// across every agent's Store, re-sorted by the same fused score each
// agent's own Recall pipeline already produces, then capped to limit. It
// skips the RecallCache and secondary-rerank pass since both are keyed per
// agent and a merged result set has no single agent's cache entry to warm.
func (c *Core) recallAll(ctx context.Context, p RecallParams, limit int) (RecallResponse, error) {
	normalized := c.norm.Normalize(p.Query)
	baseFilter := p.Filter
	if p.Namespace != "" {
		baseFilter.Namespace = p.Namespace
	}
	now := time.Now()

	var mu sync.Mutex
	var merged []model.RecallResult
	mode := model.SearchFull
	err := c.Pool.ForEachAgent(ctx, pool.AllAgents, func(ctx context.Context, agent string, s store.Store) error {
		filter := baseFilter
		filter.Agent = agent

		var queryVec []float32
		emb := c.embedderFor(agent, s)
		vec, embErr := emb.Embed(ctx, normalized.Folded)
		if embErr == nil {
			queryVec = vec
			c.Metrics.ObserveEmbedSuccess()
		} else {
			c.Metrics.ObserveEmbedFail()
		}

		fused, agentMode, err := c.fuseCandidates(ctx, s, queryVec, normalized.Folded, limit, filter, now)
		if err != nil {
			return err
		}

		mu.Lock()
		merged = append(merged, fused...)
		if agentMode != model.SearchFull {
			mode = agentMode
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return RecallResponse{}, err
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	degraded := mode != model.SearchFull
	results := capResults(merged, limit, p.MinScore)
	return RecallResponse{Results: results, Triggered: true, SearchMode: mode, Degraded: degraded}, nil
}

func (c *Core) fuseCandidates(ctx context.Context, s store.Store, queryVec []float32, normalizedQuery string, limit int, filter model.Filter, now time.Time) ([]model.RecallResult, model.SearchMode, error) {
	gen := candidate.New(s)
	result, err := gen.Generate(ctx, queryVec, normalizedQuery, candidateOverfetchK, filter)
	if err != nil {
		return nil, "", err
	}
	fused := c.fuser.Fuse(result.Candidates, limit*2, now)
	return fused, result.Mode, nil
}

func (c *Core) runSecondaryRerank(agent string, key cache.Key, normalizedQuery string, fused []model.RecallResult, gen uint64) {
	ctx := context.Background()
	refreshed, err := c.secondary.Score(ctx, normalizedQuery, fused, "secondary", time.Now())
	if err != nil {
		c.Log.Warn("secondary rerank failed", "agent", agent, "err", err)
		return
	}
	c.recallCache.Refresh(key, gen, refreshed, time.Now())
}

func capResults(results []model.RecallResult, limit int, minScore float64) []model.RecallResult {
	var out []model.RecallResult
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// CaptureMessage is one message in a /v1/capture batch.
type CaptureMessage struct {
	Text       string
	Category   model.Category
	Session    string
	Source     string
	Provenance string
}

// CaptureResult reports one message's write-merge outcome.
type CaptureResult struct {
	MemoryID string
	Outcome  writemerge.Outcome
}

// Capture implements /v1/capture: classify, embed, dedup-merge, and store
// each message in a batch.
func (c *Core) Capture(ctx context.Context, agentRaw, namespace string, messages []CaptureMessage) ([]CaptureResult, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return nil, err
	}
	out := make([]CaptureResult, 0, len(messages))
	for _, msg := range messages {
		res, err := c.put(ctx, agent, namespace, msg)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	c.recallCache.Invalidate(agent)
	return out, nil
}

// Store implements /v1/store: a single memory insert through the same
// write-merge path Capture uses for one message.
func (c *Core) Store(ctx context.Context, agentRaw, namespace string, msg CaptureMessage) (CaptureResult, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return CaptureResult{}, err
	}
	res, err := c.put(ctx, agent, namespace, msg)
	if err != nil {
		return CaptureResult{}, err
	}
	c.recallCache.Invalidate(agent)
	return res, nil
}

// Rule implements /v1/rule: category=rule, importance=1.0, pinned.
func (c *Core) Rule(ctx context.Context, agentRaw, namespace, text string) (CaptureResult, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return CaptureResult{}, err
	}
	res, err := c.put(ctx, agent, namespace, CaptureMessage{Text: text, Category: model.CategoryRule})
	if err != nil {
		return CaptureResult{}, err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return res, err
	}
	if err := s.UpdateFields(ctx, res.MemoryID, store.Patch{Importance: float64Ptr(1.0)}); err != nil {
		return res, err
	}
	if err := s.Pin(ctx, res.MemoryID); err != nil {
		return res, err
	}
	c.recallCache.Invalidate(agent)
	return res, nil
}

func float64Ptr(f float64) *float64 { return &f }

func (c *Core) put(ctx context.Context, agent, namespace string, msg CaptureMessage) (CaptureResult, error) {
	s, err := c.Pool.Get(agent)
	if err != nil {
		return CaptureResult{}, err
	}
	normalized := c.norm.Normalize(msg.Text)
	id := store.DeriveID(agent, normalized.Folded)

	importance := c.trig.Importance(trigger.ImportanceInput{
		Text:     msg.Text,
		IsQAPair: msg.Category == model.CategoryQAPair,
		Source:   msg.Source,
	})

	var vec []float32
	emb := c.embedderFor(agent, s)
	if v, err := emb.Embed(ctx, normalized.Folded); err == nil {
		vec = v
		c.Metrics.ObserveEmbedSuccess()
	} else {
		c.Metrics.ObserveEmbedFail()
	}

	category := msg.Category
	if category == "" {
		category = model.CategoryConversation
	}

	merger := writemerge.New(s, writemerge.Config{ThetaMerge: c.Config.ThetaMerge, ReinforceDelta: 0.05})
	result, err := merger.Put(ctx, store.PutParams{
		ID:             id,
		Agent:          agent,
		Namespace:      namespace,
		Text:           msg.Text,
		NormalizedText: normalized.Folded,
		Category:       category,
		Importance:     importance,
		Session:        msg.Session,
		Source:         msg.Source,
		Provenance:     msg.Provenance,
		Embedding:      vec,
	}, vec)
	if err != nil {
		return CaptureResult{}, err
	}
	return CaptureResult{MemoryID: result.MemoryID, Outcome: result.Outcome}, nil
}

// Forget implements /v1/forget: delete by id, or by query (top-1 forget).
func (c *Core) Forget(ctx context.Context, agentRaw, id, query string) (string, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return "", err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return "", err
	}

	targetID := id
	if targetID == "" && query != "" {
		resp, err := c.Recall(ctx, RecallParams{Agent: agent, Query: query, Limit: 1})
		if err != nil {
			return "", err
		}
		if len(resp.Results) == 0 {
			return "", memerr.New(memerr.KindStoreNotFound, "no memory matched forget query", false)
		}
		targetID = resp.Results[0].Memory.ID
	}
	if targetID == "" {
		return "", memerr.New(memerr.KindValidation, "forget requires an id or a query", false)
	}
	if err := s.SoftDelete(ctx, targetID, "forget"); err != nil {
		return "", err
	}
	c.recallCache.Invalidate(agent)
	return targetID, nil
}

// Pin implements /v1/pin.
func (c *Core) Pin(ctx context.Context, agentRaw, id string) error {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return err
	}
	return lifecycle.New(s, c.lifecycleConfig()).Pin(ctx, id)
}

// Unpin implements /v1/unpin.
func (c *Core) Unpin(ctx context.Context, agentRaw, id string) error {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return err
	}
	return lifecycle.New(s, c.lifecycleConfig()).Unpin(ctx, id, time.Now())
}

func (c *Core) lifecycleConfig() lifecycle.Config {
	cfg := lifecycle.DefaultConfig()
	cfg.BaseRate = c.Config.DecayBaseRate
	cfg.Alpha = c.Config.DecayAlpha
	cfg.ThetaConsolidate = c.Config.ThetaConsolidate
	cfg.DeltaConf = c.Config.ConflictMargin
	cfg.TauWeak = c.Config.TauWeak
	cfg.TauStale = c.Config.TauStale
	cfg.PurgeRetention = c.Config.PurgeRetention
	return cfg
}

// Decay implements /v1/decay, fanning out over "all" per spec.md §6.
func (c *Core) Decay(ctx context.Context, agentRaw string) (map[string]lifecycle.DecayReport, error) {
	reports := map[string]lifecycle.DecayReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		report, err := lifecycle.New(s, c.lifecycleConfig()).Decay(ctx, time.Now())
		mu.Lock()
		reports[agent] = report
		mu.Unlock()
		return err
	})
	return reports, err
}

// Consolidate implements /v1/consolidate for one namespace, fanning out
// over "all" per spec.md §6.
func (c *Core) Consolidate(ctx context.Context, agentRaw, namespace string) (map[string]lifecycle.ConsolidateReport, error) {
	reports := map[string]lifecycle.ConsolidateReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		report, err := lifecycle.New(s, c.lifecycleConfig()).Consolidate(ctx, namespace, time.Now())
		mu.Lock()
		reports[agent] = report
		mu.Unlock()
		if err == nil && report.Merged > 0 {
			c.recallCache.Invalidate(agent)
		}
		return err
	})
	return reports, err
}

// Compress implements /v1/compress: consolidation run across every
// namespace an agent has, not just one, since "compress" names the
// comprehensive collapse spec.md §6 lists alongside the single-namespace
// consolidate trigger.
func (c *Core) Compress(ctx context.Context, agentRaw string) (map[string]lifecycle.ConsolidateReport, error) {
	totals := map[string]lifecycle.ConsolidateReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		stats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		lc := lifecycle.New(s, c.lifecycleConfig())
		var total lifecycle.ConsolidateReport
		for ns := range stats.Namespaces {
			report, err := lc.Consolidate(ctx, ns, time.Now())
			if err != nil {
				return err
			}
			total.Groups += report.Groups
			total.Merged += report.Merged
		}
		mu.Lock()
		totals[agent] = total
		mu.Unlock()
		if total.Merged > 0 {
			c.recallCache.Invalidate(agent)
		}
		return nil
	})
	return totals, err
}

// GC implements /v1/gc, fanning out over "all" per spec.md §6.
func (c *Core) GC(ctx context.Context, agentRaw string) (map[string]lifecycle.GCReport, error) {
	reports := map[string]lifecycle.GCReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		report, err := lifecycle.New(s, c.lifecycleConfig()).GC(ctx, time.Now())
		mu.Lock()
		reports[agent] = report
		mu.Unlock()
		return err
	})
	return reports, err
}

// Backfill implements the supplemented /v1/backfill-embeddings maintenance
// tick: retry embedding any memory still stuck at embedding_status=pending.
func (c *Core) Backfill(ctx context.Context, agentRaw string) (map[string]lifecycle.BackfillReport, error) {
	reports := map[string]lifecycle.BackfillReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		emb := c.embedderFor(agent, s)
		report, err := lifecycle.New(s, c.lifecycleConfig()).BackfillEmbeddings(ctx, emb, lifecycle.DefaultBackfillConfig())
		mu.Lock()
		reports[agent] = report
		mu.Unlock()
		return err
	})
	return reports, err
}

// RescoreCronMemories implements the supplemented /v1/rescore-cron
// maintenance tick that re-caps importance on already-written cron-origin
// memories.
func (c *Core) RescoreCronMemories(ctx context.Context, agentRaw string) (map[string]lifecycle.RescoreReport, error) {
	reports := map[string]lifecycle.RescoreReport{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		report, err := lifecycle.New(s, c.lifecycleConfig()).RescoreCronMemories(ctx)
		mu.Lock()
		reports[agent] = report
		mu.Unlock()
		return err
	})
	return reports, err
}

// AmnesiaCheck implements /v1/amnesia-check against one agent.
func (c *Core) AmnesiaCheck(ctx context.Context, agentRaw string, topics []string) (lifecycle.AmnesiaReport, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return lifecycle.AmnesiaReport{}, err
	}
	recall := func(ctx context.Context, topic string) ([]model.RecallResult, error) {
		resp, err := c.Recall(ctx, RecallParams{Agent: agent, Query: topic, Limit: 5})
		if err != nil {
			return nil, err
		}
		return resp.Results, nil
	}
	return lifecycle.AmnesiaCheck(ctx, topics, recall)
}

// Stats implements /v1/stats, fanning out over "all" and feeding
// MetricsHub's per-agent gauges in the same pass.
func (c *Core) Stats(ctx context.Context, agentRaw string) (map[string]store.Stats, error) {
	reports := map[string]store.Stats{}
	var mu sync.Mutex
	err := c.Pool.ForEachAgent(ctx, agentRaw, func(ctx context.Context, agent string, s store.Store) error {
		stats, err := s.Stats(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		reports[agent] = stats
		mu.Unlock()
		c.Metrics.SetAgentStats(agent, stats)
		return nil
	})
	return reports, err
}

// Export implements /v1/export for one agent.
func (c *Core) Export(ctx context.Context, agentRaw string, filter model.Filter) ([]model.Memory, error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return nil, err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return nil, err
	}
	filter.Agent = agent
	return s.Export(ctx, filter)
}

// Import implements /v1/import for one agent.
func (c *Core) Import(ctx context.Context, agentRaw string, records []model.Memory) (imported, skipped int, err error) {
	agent, err := pool.ValidateAgentID(agentRaw)
	if err != nil {
		return 0, 0, err
	}
	s, err := c.Pool.Get(agent)
	if err != nil {
		return 0, 0, err
	}
	imported, skipped, err = s.Import(ctx, records)
	if err == nil {
		c.recallCache.Invalidate(agent)
	}
	return imported, skipped, err
}

// Close releases the pool's open Stores.
func (c *Core) Close() error {
	return c.Pool.CloseAll()
}
