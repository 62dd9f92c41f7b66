// Package fuse implements the Fuser from spec.md §4.7: Reciprocal Rank
// Fusion (k=60) over CandidateGen's semantic/lexical ranks, blended with the
// recency/strength/importance layers by config.Weights. Grounded on
// nous-daemon's reciprocalRankFusion (pkg/embeddings/hybrid.go).
package fuse

import (
	"sort"
	"time"

	"github.com/rcliao/agent-memory/internal/candidate"
	"github.com/rcliao/agent-memory/internal/config"
	"github.com/rcliao/agent-memory/internal/model"
)

// RRFK is Cormack et al.'s smoothing constant, unchanged from the teacher's
// grounding source.
const RRFK = 60

// KFuse is the default fused-candidate cutoff spec.md §4.7 passes to Rerank.
const KFuse = 20

// Fuser combines candidate ranks into one RecallResult per memory.
type Fuser struct {
	Weights config.Weights
}

// New builds a Fuser using the given layer weights.
func New(w config.Weights) *Fuser {
	return &Fuser{Weights: w}
}

func rrfTerm(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	return 1.0 / (float64(RRFK) + float64(rank))
}

// Fuse scores and orders candidates, returning the top kFuse results (or all
// of them if fewer). now is injected so decay/recency terms are
// deterministic under test.
func (f *Fuser) Fuse(candidates []candidate.Candidate, kFuse int, now time.Time) []model.RecallResult {
	if kFuse <= 0 {
		kFuse = KFuse
	}

	out := make([]model.RecallResult, 0, len(candidates))
	for _, c := range candidates {
		semantic := rrfTerm(c.VectorRank)
		lexical := rrfTerm(c.LexicalRank)
		recency := candidate.RecencyScore(c.Memory, now)
		strength := c.Memory.Strength
		importance := c.Memory.Importance

		score := f.Weights.Semantic*semantic +
			f.Weights.Lexical*lexical +
			f.Weights.Recency*recency +
			f.Weights.Strength*strength +
			f.Weights.Importance*importance

		out = append(out, model.RecallResult{
			Memory: c.Memory,
			Scores: model.LayerScores{
				Semantic:   semantic,
				Lexical:    lexical,
				Recency:    recency,
				Strength:   strength,
				Importance: importance,
			},
			Score:          score,
			ConfidenceTier: model.TierFromScore(score),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > kFuse {
		out = out[:kFuse]
	}
	return out
}
