package rerank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcliao/agent-memory/internal/model"
)

func TestResolveModelPresetsAndPassthrough(t *testing.T) {
	if got := ResolveModel("fast"); got != "cross-encoder/ms-marco-MiniLM-L-6-v2" {
		t.Errorf("expected fast preset to resolve, got %q", got)
	}
	if got := ResolveModel("some/literal-model"); got != "some/literal-model" {
		t.Errorf("expected literal model id to pass through, got %q", got)
	}
}

func TestLexicalOverlapModelScoresExactMatchHighest(t *testing.T) {
	m := LexicalOverlapModel{}
	scores, err := m.Predict(context.Background(), "the quick brown fox", []string{
		"the quick brown fox", "something entirely unrelated",
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if scores[0] <= scores[1] {
		t.Errorf("expected exact match to score higher than unrelated text: %v", scores)
	}
}

func TestScoreBlendsIntoFusedScore(t *testing.T) {
	now := time.Now()
	r := New(Config{Enabled: true, TopK: 5, Weight: 0.5, MaxDocChars: 1000}, LexicalOverlapModel{})

	results := []model.RecallResult{
		{Memory: model.Memory{ID: "a", Text: "the quick brown fox", NormalizedText: "the quick brown fox"}, Score: 0.2},
		{Memory: model.Memory{ID: "b", Text: "totally different", NormalizedText: "totally different"}, Score: 0.2},
	}

	out, err := r.Score(context.Background(), "the quick brown fox", results, "primary", now)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if out[0].Score <= out[1].Score {
		t.Errorf("expected exact-match doc to outrank unrelated doc after reranking: %+v", out)
	}
	if out[0].Scores.RerankerPrimary == 0 {
		t.Error("expected RerankerPrimary to be populated")
	}
}

func TestScoreDisabledIsNoOp(t *testing.T) {
	r := New(Config{Enabled: false}, LexicalOverlapModel{})
	results := []model.RecallResult{{Memory: model.Memory{ID: "a"}, Score: 0.5}}
	out, err := r.Score(context.Background(), "q", results, "primary", time.Now())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if out[0].Score != 0.5 {
		t.Errorf("expected unmodified score when disabled, got %v", out[0].Score)
	}
}

type failingModel struct{}

func (failingModel) Predict(context.Context, string, []string) ([]float64, error) {
	return nil, errors.New("model unavailable")
}

func TestScoreDegradesGracefullyOnModelFailure(t *testing.T) {
	r := New(Config{Enabled: true, TopK: 5, Weight: 0.5}, failingModel{})
	results := []model.RecallResult{{Memory: model.Memory{ID: "a"}, Score: 0.42}}
	out, err := r.Score(context.Background(), "q", results, "primary", time.Now())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if out[0].Score != 0.42 {
		t.Errorf("expected fused score preserved on model failure, got %v", out[0].Score)
	}
}

func TestScoreCacheAvoidsRepeatedPredictCalls(t *testing.T) {
	calls := 0
	countingModel := predictFunc(func(_ context.Context, _ string, docs []string) ([]float64, error) {
		calls++
		out := make([]float64, len(docs))
		for i := range out {
			out[i] = 0.77
		}
		return out, nil
	})
	r := New(Config{Enabled: true, TopK: 5, Weight: 0.5, CacheTTL: time.Minute, CacheMax: 100}, countingModel)

	results := []model.RecallResult{{Memory: model.Memory{ID: "a", Text: "hello"}, Score: 0.1}}
	now := time.Now()

	if _, err := r.Score(context.Background(), "q", cloneResults(results), "primary", now); err != nil {
		t.Fatalf("first score: %v", err)
	}
	if _, err := r.Score(context.Background(), "q", cloneResults(results), "primary", now.Add(time.Second)); err != nil {
		t.Fatalf("second score: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the cache to avoid a second Predict call, got %d calls", calls)
	}
}

func TestShouldGateSkipsWhenSpreadIsWide(t *testing.T) {
	results := []model.RecallResult{{Score: 0.9}, {Score: 0.1}}
	if ShouldGate(results, 0.2) {
		t.Error("expected wide spread to skip gating (no rerank needed)")
	}
}

func TestShouldGateRunsWhenSpreadIsNarrow(t *testing.T) {
	results := []model.RecallResult{{Score: 0.51}, {Score: 0.50}}
	if !ShouldGate(results, 0.2) {
		t.Error("expected narrow spread to require reranking")
	}
}

func TestMMRDiversifyPrefersDissimilarSecondPick(t *testing.T) {
	results := []model.RecallResult{
		{Memory: model.Memory{ID: "a", NormalizedText: "cats are great pets"}, Score: 0.9},
		{Memory: model.Memory{ID: "b", NormalizedText: "cats are great pets"}, Score: 0.89},
		{Memory: model.Memory{ID: "c", NormalizedText: "the stock market fell today"}, Score: 0.5},
	}
	out := MMRDiversify(results, 2, 0.5)
	if out[0].Memory.ID != "a" {
		t.Fatalf("expected highest-scoring doc first, got %s", out[0].Memory.ID)
	}
	if out[1].Memory.ID != "c" {
		t.Errorf("expected MMR to prefer the dissimilar doc over the near-duplicate, got %s", out[1].Memory.ID)
	}
}

type predictFunc func(ctx context.Context, query string, docs []string) ([]float64, error)

func (f predictFunc) Predict(ctx context.Context, query string, docs []string) ([]float64, error) {
	return f(ctx, query, docs)
}

func cloneResults(in []model.RecallResult) []model.RecallResult {
	out := make([]model.RecallResult, len(in))
	copy(out, in)
	return out
}
