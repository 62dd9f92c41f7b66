// Package lifecycle implements Lifecycle from spec.md §4.11: scheduled
// decay, consolidation, conflict resolution for exclusive relations,
// soft/hard GC, pin/unpin, and the amnesia check used to detect catastrophic
// recall loss after maintenance. Also carries the two maintenance helpers
// supplemented from original_source/'s embed_worker.py and
// rescore_cron_memories.py. Grounded on the teacher's general pattern of one
// small struct per concern wrapping a Store, the way internal/writemerge
// does, rather than a single do-everything maintenance object.
package lifecycle

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/store"
)

// Config holds the thresholds spec.md §4.11 names.
type Config struct {
	BaseRate           float64 // Ebbinghaus base_rate, default 0.15
	Alpha              float64 // Ebbinghaus alpha, default 2.0
	ThetaConsolidate   float64 // cosine similarity threshold for consolidation, default 0.9
	DeltaConf          float64 // confidence margin for exclusive-relation conflicts, default 0.15
	TauWeak            float64 // strength floor below which GC considers a memory, default 0.1
	TauStale           time.Duration // age above which GC considers a memory, default 90d
	PurgeRetention     time.Duration // soft-delete retention before hard purge, default 30d
}

// DefaultConfig matches spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		BaseRate:         0.15,
		Alpha:            2.0,
		ThetaConsolidate: 0.9,
		DeltaConf:        0.15,
		TauWeak:          0.1,
		TauStale:         90 * 24 * time.Hour,
		PurgeRetention:   30 * 24 * time.Hour,
	}
}

// Lifecycle runs maintenance passes against one agent's Store.
type Lifecycle struct {
	Store  store.Store
	Config Config
}

// New builds a Lifecycle bound to a Store.
func New(s store.Store, cfg Config) *Lifecycle {
	return &Lifecycle{Store: s, Config: cfg}
}

// DecayReport summarizes one decay tick.
type DecayReport struct {
	Considered int
	Decayed    int
}

// Decay runs the Ebbinghaus decay tick from spec.md §4.11 against every
// unpinned, active memory:
// strength ← strength · exp(−Δt_days · base_rate/(1+α·importance)).
// Pinned memories are skipped entirely — pinning freezes strength.
//
// Δt is measured from last_decayed_at, not last_reinforced_at: strength is
// already the compounded result of every prior tick, so anchoring each new
// tick on the most recent tick (falling back to last_reinforced_at the
// first time a memory is ever decayed) is what makes repeated ticks compose
// into the same closed-form curve as one tick over the combined interval.
func (l *Lifecycle) Decay(ctx context.Context, now time.Time) (DecayReport, error) {
	memories, err := l.Store.ScanForMaintenance(ctx, func(m model.Memory) bool {
		return !m.Pinned && m.SoftDeletedAt == nil
	})
	if err != nil {
		return DecayReport{}, err
	}

	var report DecayReport
	for _, m := range memories {
		report.Considered++
		anchor := m.LastReinforced
		if m.LastDecayedAt.After(anchor) {
			anchor = m.LastDecayedAt
		}
		deltaDays := now.Sub(anchor).Hours() / 24
		if deltaDays <= 0 {
			continue
		}
		decayRate := l.Config.BaseRate / (1 + l.Config.Alpha*m.Importance)
		newStrength := m.Strength * math.Exp(-deltaDays*decayRate)
		if err := l.Store.UpdateFields(ctx, m.ID, store.Patch{Strength: &newStrength, LastDecayedAt: &now}); err != nil {
			return report, err
		}
		report.Decayed++
	}
	return report, nil
}

// ConsolidateReport summarizes one consolidation pass.
type ConsolidateReport struct {
	Groups  int
	Merged  int
}

// Consolidate runs the offline consolidation pass from spec.md §4.11,
// scoped to one (agent, namespace): builds a cosine-similarity graph over
// every active, embedded memory in the namespace, merges each connected
// component by union-find, and folds the losers into the winner (highest
// importance, ties broken by highest strength, then oldest).
func (l *Lifecycle) Consolidate(ctx context.Context, namespace string, now time.Time) (ConsolidateReport, error) {
	memories, err := l.Store.Export(ctx, model.Filter{Namespace: namespace})
	if err != nil {
		return ConsolidateReport{}, err
	}

	var active []model.Memory
	for _, m := range memories {
		if m.SoftDeletedAt == nil && len(m.Embedding) > 0 {
			active = append(active, m)
		}
	}
	if len(active) < 2 {
		return ConsolidateReport{}, nil
	}

	uf := newUnionFind(len(active))
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if cosineSimilarity(active[i].Embedding, active[j].Embedding) >= l.Config.ThetaConsolidate {
				uf.union(i, j)
			}
		}
	}

	groups := map[int][]int{}
	for i := range active {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var report ConsolidateReport
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		report.Groups++
		winner, losers := pickWinner(active, idxs)

		mergedImportance := winner.Importance
		mergedStrength := winner.Strength
		mergedReinforce := winner.ReinforceCount
		for _, lo := range losers {
			if lo.Importance > mergedImportance {
				mergedImportance = lo.Importance
			}
			if lo.Strength > mergedStrength {
				mergedStrength = lo.Strength
			}
			mergedReinforce += lo.ReinforceCount
		}

		if err := l.Store.UpdateFields(ctx, winner.ID, store.Patch{
			Importance:     &mergedImportance,
			Strength:       &mergedStrength,
			ReinforceCount: &mergedReinforce,
		}); err != nil {
			return report, err
		}

		winnerID := winner.ID
		for _, lo := range losers {
			if err := l.Store.RewriteRelations(ctx, lo.ID, winner.ID); err != nil {
				return report, err
			}
			if err := l.Store.UpdateFields(ctx, lo.ID, store.Patch{SupersededBy: &winnerID}); err != nil {
				return report, err
			}
			if err := l.Store.SoftDelete(ctx, lo.ID, "consolidated"); err != nil {
				return report, err
			}
			report.Merged++
		}
	}
	return report, nil
}

func pickWinner(all []model.Memory, idxs []int) (model.Memory, []model.Memory) {
	sort.Slice(idxs, func(a, b int) bool {
		ma, mb := all[idxs[a]], all[idxs[b]]
		if ma.Importance != mb.Importance {
			return ma.Importance > mb.Importance
		}
		if ma.Strength != mb.Strength {
			return ma.Strength > mb.Strength
		}
		return ma.CreatedAt.Before(mb.CreatedAt)
	})
	winner := all[idxs[0]]
	losers := make([]model.Memory, 0, len(idxs)-1)
	for _, i := range idxs[1:] {
		losers = append(losers, all[i])
	}
	return winner, losers
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// ExclusiveCandidate is one newly-asserted memory competing for an exclusive
// slot (e.g. lives_in, works_at, current status) against an existing one.
type ExclusiveCandidate struct {
	NewID           string
	ExistingID      string
	NewConfidence   float64
	OldConfidence   float64
}

// ResolveExclusive implements the exclusive-relation conflict policy from
// spec.md §4.11: a newer assertion with confidence margin above DeltaConf
// supersedes the older one (soft-deleted with superseded_by=<newID>); below
// the margin, both remain and are flagged ambiguous.
func (l *Lifecycle) ResolveExclusive(ctx context.Context, c ExclusiveCandidate) error {
	margin := c.NewConfidence - c.OldConfidence
	if margin > l.Config.DeltaConf {
		supersededBy := c.NewID
		if err := l.Store.UpdateFields(ctx, c.ExistingID, store.Patch{SupersededBy: &supersededBy}); err != nil {
			return err
		}
		return l.Store.SoftDelete(ctx, c.ExistingID, "conflict")
	}

	ambiguous := true
	if err := l.Store.UpdateFields(ctx, c.NewID, store.Patch{Ambiguous: &ambiguous}); err != nil {
		return err
	}
	return l.Store.UpdateFields(ctx, c.ExistingID, store.Patch{Ambiguous: &ambiguous})
}

// GCReport summarizes one GC pass.
type GCReport struct {
	SoftDeleted int
	HardPurged  int
}

// GC implements the soft-GC and hard-purge pass from spec.md §4.11:
// soft-delete unpinned, unused, stale, weak memories; hard-purge anything
// that has been soft-deleted past PurgeRetention.
func (l *Lifecycle) GC(ctx context.Context, now time.Time) (GCReport, error) {
	var report GCReport

	weak, err := l.Store.ScanForMaintenance(ctx, func(m model.Memory) bool {
		if m.Pinned || m.SoftDeletedAt != nil {
			return false
		}
		if m.Strength >= l.Config.TauWeak {
			return false
		}
		if now.Sub(m.CreatedAt) < l.Config.TauStale {
			return false
		}
		return m.AccessCount == 0
	})
	if err != nil {
		return report, err
	}
	for _, m := range weak {
		if err := l.Store.SoftDelete(ctx, m.ID, "gc_weak_stale_unused"); err != nil {
			return report, err
		}
		report.SoftDeleted++
	}

	purgeable, err := l.Store.ScanForMaintenance(ctx, func(m model.Memory) bool {
		return m.SoftDeletedAt != nil && now.Sub(*m.SoftDeletedAt) > l.Config.PurgeRetention
	})
	if err != nil {
		return report, err
	}
	for _, m := range purgeable {
		if err := l.Store.DeleteRelationsFor(ctx, m.ID); err != nil {
			return report, err
		}
		if err := l.Store.HardDelete(ctx, m.ID); err != nil {
			return report, err
		}
		report.HardPurged++
	}
	return report, nil
}

// Pin freezes a memory's strength at its current value, exempting it from
// decay and GC.
func (l *Lifecycle) Pin(ctx context.Context, id string) error {
	return l.Store.Pin(ctx, id)
}

// Unpin resumes decay from the memory's current strength, resetting
// last_reinforced_at and last_decayed_at to now so the next decay tick's
// Δt starts fresh.
func (l *Lifecycle) Unpin(ctx context.Context, id string, now time.Time) error {
	if err := l.Store.Unpin(ctx, id); err != nil {
		return err
	}
	return l.Store.UpdateFields(ctx, id, store.Patch{LastReinforced: &now, LastDecayedAt: &now})
}

// Recaller is the minimal recall hook AmnesiaCheck needs; bound at
// construction time to core's Recall so this package never imports
// candidate/fuse/rerank.
type Recaller func(ctx context.Context, topic string) ([]model.RecallResult, error)

// AmnesiaReport is the per-topic coverage result.
type AmnesiaReport struct {
	Covered map[string]bool
}

// AmnesiaCheck implements spec.md §4.11's amnesia check: for each topic,
// recall and report whether any result cleared the MEDIUM confidence tier.
func AmnesiaCheck(ctx context.Context, topics []string, recall Recaller) (AmnesiaReport, error) {
	report := AmnesiaReport{Covered: map[string]bool{}}
	for _, topic := range topics {
		results, err := recall(ctx, topic)
		if err != nil {
			return report, err
		}
		covered := false
		for _, r := range results {
			if r.ConfidenceTier == model.TierHigh || r.ConfidenceTier == model.TierMedium {
				covered = true
				break
			}
		}
		report.Covered[topic] = covered
	}
	return report, nil
}

// EmbedBatcher is the minimal Embedder hook BackfillEmbeddings needs.
type EmbedBatcher interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BackfillConfig mirrors embed_worker.py's tunables.
type BackfillConfig struct {
	BatchSize               int
	CircuitBreakerThreshold int
}

// DefaultBackfillConfig matches the Python reference's worker defaults.
func DefaultBackfillConfig() BackfillConfig {
	return BackfillConfig{BatchSize: 2, CircuitBreakerThreshold: 5}
}

// BackfillReport summarizes one backfill pass.
type BackfillReport struct {
	Scanned int
	Updated int
	Failed  int
}

// BackfillEmbeddings implements the supplemented Lifecycle tick grounded on
// embed_worker.py: scan for embedding_status=pending memories and retry
// embedding them in small batches, with its own consecutive-failure counter
// independent of the Embedder's own circuit breaker, so one bad batch
// doesn't stall the whole pass indefinitely.
func (l *Lifecycle) BackfillEmbeddings(ctx context.Context, embedder EmbedBatcher, cfg BackfillConfig) (BackfillReport, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 2
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	pending, err := l.Store.ScanForMaintenance(ctx, func(m model.Memory) bool {
		return m.SoftDeletedAt == nil && m.EmbeddingStatus == model.EmbeddingPending
	})
	if err != nil {
		return BackfillReport{}, err
	}

	var report BackfillReport
	consecutiveFailures := 0

	for start := 0; start < len(pending); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		report.Scanned += len(batch)

		texts := make([]string, len(batch))
		for i, m := range batch {
			texts[i] = m.Text
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			consecutiveFailures++
			report.Failed += len(batch)
			if consecutiveFailures >= cfg.CircuitBreakerThreshold {
				return report, nil
			}
			continue
		}

		consecutiveFailures = 0
		for i, m := range batch {
			if i >= len(vectors) || vectors[i] == nil {
				report.Failed++
				continue
			}
			if err := l.Store.SetEmbedding(ctx, m.ID, vectors[i]); err != nil {
				report.Failed++
				continue
			}
			report.Updated++
		}
	}
	return report, nil
}

// cronPatterns detects automated/cron-origin text the way
// rescore_cron_memories.py's regex list does.
var cronPatterns = []string{"[cron:", "heartbeat_ok", "return your summary as plain text"}

// cronImportanceCap is the ceiling rescore_cron_memories.py clamps detected
// cron-origin text down to.
const cronImportanceCap = 0.30

// RescoreReport summarizes one rescore pass.
type RescoreReport struct {
	Processed int
	Updated   int
}

// RescoreCronMemories implements the supplemented maintenance helper
// grounded on rescore_cron_memories.py: re-caps importance for already-
// written memories whose text matches a cron-output pattern, useful after a
// TriggerScorer weight change lets some of them slip above the cap.
func (l *Lifecycle) RescoreCronMemories(ctx context.Context) (RescoreReport, error) {
	memories, err := l.Store.ScanForMaintenance(ctx, func(m model.Memory) bool {
		return m.SoftDeletedAt == nil
	})
	if err != nil {
		return RescoreReport{}, err
	}

	var report RescoreReport
	for _, m := range memories {
		report.Processed++
		if !isCronText(m.Text) || m.Importance <= cronImportanceCap {
			continue
		}
		capped := cronImportanceCap
		if err := l.Store.UpdateFields(ctx, m.ID, store.Patch{Importance: &capped}); err != nil {
			return report, err
		}
		report.Updated++
	}
	return report, nil
}

func isCronText(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range cronPatterns {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
