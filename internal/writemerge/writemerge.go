// Package writemerge implements WriteMerge from spec.md §4.10: the
// write-path semantic dedup that decides whether a new memory reinforces an
// existing near-duplicate, supersedes it, or is inserted fresh. The lookup
// and the writes are separate Store calls; no transaction spans them. Grounded on the teacher's upsert-on-conflict pattern in
// internal/store/ops.go (Put bumping version on an existing ns/key),
// generalized from exact-key matching to vector-similarity matching.
package writemerge

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/store"
)

// Config holds the thresholds spec.md §4.10-§4.11 name.
type Config struct {
	ThetaMerge     float64
	ReinforceDelta float64
}

// DefaultConfig matches spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{ThetaMerge: 0.85, ReinforceDelta: 0.05}
}

// Outcome reports what WriteMerge actually did.
type Outcome string

const (
	OutcomeInserted   Outcome = "inserted"
	OutcomeReinforced Outcome = "reinforced"
	OutcomeSuperseded Outcome = "superseded" // new row inserted, old one marked superseded by conflict
)

// Result is WriteMerge's write-path verdict.
type Result struct {
	Outcome  Outcome
	MemoryID string
}

// Merger runs the write-time dedup/merge decision against one agent's
// Store.
type Merger struct {
	Store  store.Store
	Config Config
}

// New builds a Merger bound to a Store.
func New(s store.Store, cfg Config) *Merger {
	return &Merger{Store: s, Config: cfg}
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

var negationMarkers = []string{
	"not ", "n't", "never", "no longer", "stopped",
	"değil", "yok", "artık", "hiç",
}

// isConflicting is a heuristic conflict detector for rule/preference
// memories: a match only counts as a contradiction (rather than a
// reinforcement of the same statement) when exactly one of the two texts
// carries a negation marker the other lacks, since that's the case where
// "reinforcing" would silently flip the rule's meaning.
func isConflicting(oldText, newText string) bool {
	oldNeg := containsAny(strings.ToLower(oldText), negationMarkers)
	newNeg := containsAny(strings.ToLower(newText), negationMarkers)
	return oldNeg != newNeg
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Put decides insert vs. reinforce vs. supersede for one new memory. Insert
// writes a fresh row; reinforce updates the existing row; supersede inserts
// the fresh row and then marks the old one superseded and soft-deletes it.
// Each write is its own Store call: they are not wrapped in one
// transaction, and an error part-way leaves the earlier writes in place.
func (m *Merger) Put(ctx context.Context, p store.PutParams, vec []float32) (Result, error) {
	filter := model.Filter{Agent: p.Agent, Namespace: p.Namespace}

	var bestID string
	var bestSim float64
	var bestMem *model.Memory

	if vec != nil {
		hits, err := m.Store.VectorTopK(ctx, vec, 5, filter)
		if err != nil {
			return Result{}, err
		}
		for _, h := range hits {
			sim := 1 - h.Distance // vec0's distance is cosine distance; similarity = 1 - distance
			if sim > bestSim {
				cand, err := m.Store.Get(ctx, h.ID)
				if err != nil {
					continue
				}
				bestSim = sim
				bestID = h.ID
				bestMem = cand
			}
		}
	}

	if bestMem == nil || bestSim < m.Config.ThetaMerge {
		if _, err := m.Store.Insert(ctx, p); err != nil {
			return Result{}, err
		}
		if vec != nil {
			if err := m.Store.SetEmbedding(ctx, p.ID, vec); err != nil {
				return Result{}, err
			}
		}
		return Result{Outcome: OutcomeInserted, MemoryID: p.ID}, nil
	}

	if (bestMem.Category == model.CategoryRule || bestMem.Category == model.CategoryPreference) &&
		isConflicting(bestMem.Text, p.Text) {
		if _, err := m.Store.Insert(ctx, p); err != nil {
			return Result{}, err
		}
		if vec != nil {
			if err := m.Store.SetEmbedding(ctx, p.ID, vec); err != nil {
				return Result{}, err
			}
		}
		supersededBy := p.ID
		if err := m.Store.UpdateFields(ctx, bestID, store.Patch{SupersededBy: &supersededBy}); err != nil {
			return Result{}, err
		}
		if err := m.Store.SoftDelete(ctx, bestID, "superseded"); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeSuperseded, MemoryID: p.ID}, nil
	}

	if err := m.reinforce(ctx, bestMem, p); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeReinforced, MemoryID: bestID}, nil
}

func (m *Merger) reinforce(ctx context.Context, existing *model.Memory, p store.PutParams) error {
	newStrength := math.Min(1, existing.Strength+m.Config.ReinforceDelta)
	newImportance := math.Max(existing.Importance, p.Importance)
	reinforceCount := existing.ReinforceCount + 1
	now := time.Now().UTC()
	provenance := existing.Provenance
	if p.Provenance != "" {
		if provenance != "" {
			provenance += ";" + p.Provenance
		} else {
			provenance = p.Provenance
		}
	}

	err := m.Store.UpdateFields(ctx, existing.ID, store.Patch{
		Strength:       &newStrength,
		Importance:     &newImportance,
		ReinforceCount: &reinforceCount,
		LastReinforced: &now,
		LastDecayedAt:  &now,
		Provenance:     &provenance,
	})
	if err != nil {
		return memerr.Wrap(memerr.KindStoreConflict, "reinforce existing memory", false, err)
	}
	return nil
}
