// Package candidate implements CandidateGen from spec.md §4.6: a parallel
// semantic+lexical fan-out over one agent's Store, degrading gracefully when
// either layer fails. Grounded on nous-daemon's HybridSearch
// (pkg/embeddings/hybrid.go), generalized from its ad-hoc sync.WaitGroup
// fan-out to golang.org/x/sync/errgroup for structured error propagation.
package candidate

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcliao/agent-memory/internal/model"
	"github.com/rcliao/agent-memory/internal/store"
)

// OverfetchMultiplier mirrors the teacher-grounded source's overFetchMultiplier:
// each layer fetches more than the final K so fusion has room to re-rank.
const OverfetchMultiplier = 3

// Candidate is one union-member result carrying every layer score that
// produced it, before RRF fusion.
type Candidate struct {
	Memory     model.Memory
	VectorRank int // 0 = not present in vector layer
	LexicalRank int
	Distance   float64
	LexScore   float64
}

// Result is CandidateGen's output: the candidate union plus which layers
// actually ran.
type Result struct {
	Candidates []Candidate
	Mode       model.SearchMode
}

// Generator runs the parallel semantic+lexical fan-out against one agent's
// Store.
type Generator struct {
	Store store.Store
}

// New builds a Generator bound to a single agent's Store.
func New(s store.Store) *Generator {
	return &Generator{Store: s}
}

// Generate fans out VectorTopK and LexicalTopK in parallel over s.Store,
// unions the hits by memory id, and reports which layers succeeded.
func (g *Generator) Generate(ctx context.Context, queryVec []float32, normalizedQuery string, k int, filter model.Filter) (Result, error) {
	fetchK := k * OverfetchMultiplier
	if fetchK <= 0 {
		fetchK = 30
	}

	var vecHits []store.VectorHit
	var lexHits []store.LexicalHit
	var vecErr, lexErr error

	grp, gctx := errgroup.WithContext(ctx)
	if queryVec != nil {
		grp.Go(func() error {
			vecHits, vecErr = g.Store.VectorTopK(gctx, queryVec, fetchK, filter)
			return nil // layer failures degrade, they don't abort the group
		})
	}
	grp.Go(func() error {
		lexHits, lexErr = g.Store.LexicalTopK(gctx, normalizedQuery, fetchK, filter)
		return nil
	})
	if err := grp.Wait(); err != nil {
		return Result{}, err
	}

	mode := model.SearchFull
	if queryVec == nil || vecErr != nil {
		mode = model.SearchDegradedNoVector
	} else if lexErr != nil {
		mode = model.SearchDegradedNoLexical
	}

	byID := map[string]*Candidate{}
	order := []string{}

	for rank, h := range vecHits {
		c, ok := byID[h.ID]
		if !ok {
			c = &Candidate{}
			byID[h.ID] = c
			order = append(order, h.ID)
		}
		c.VectorRank = rank + 1
		c.Distance = h.Distance
	}
	for rank, h := range lexHits {
		c, ok := byID[h.ID]
		if !ok {
			c = &Candidate{}
			byID[h.ID] = c
			order = append(order, h.ID)
		}
		c.LexicalRank = rank + 1
		c.LexScore = h.Score
	}

	candidates := make([]Candidate, 0, len(order))
	for _, id := range order {
		c := byID[id]
		m, err := g.Store.Get(ctx, id)
		if err != nil {
			continue // vanished between search and hydrate; drop silently
		}
		c.Memory = *m
		candidates = append(candidates, *c)
	}

	return Result{Candidates: candidates, Mode: mode}, nil
}

// recencyLambda is the exponential decay constant spec.md §4.6 pins for
// the recency layer: exp(-lambda*age_days).
const recencyLambda = 0.01

// RecencyScore maps the time since a memory was last accessed into [0,1],
// 1 being accessed just now,
// matching spec.md §4.7's recency layer.
func RecencyScore(m model.Memory, now time.Time) float64 {
	ageDays := now.Sub(m.LastAccessed).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-recencyLambda * ageDays)
}
