// Package embedder generalizes the teacher's OpenAIEmbedder
// (internal/embedding/embedding.go) into the three-tier, batching,
// circuit-breaking client spec.md §4.3 requires.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// Cache is the persistent (tier-2) embedding cache; internal/store's
// SQLiteStore satisfies this with CacheGetEmbedding/CachePutEmbedding.
type Cache interface {
	CacheGetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	CachePutEmbedding(ctx context.Context, key string, vec []float32) error
}

// MemoryCache is the in-process (tier-1) LRU; Ristretto satisfies this.
type MemoryCache interface {
	Get(key interface{}) (interface{}, bool)
	SetWithTTL(key, value interface{}, cost int64, ttl time.Duration) bool
}

// Config configures one Embedder.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Dimensions    int
	MaxChars      int
	BatchSize     int
	BatchWindow   time.Duration
	MaxRetries    int
	RetryBaseWait time.Duration

	CircuitFailureThreshold int
	CircuitOpenFor          time.Duration

	MemoryTTL time.Duration
	HTTP      *http.Client
}

// DefaultConfig fills in spec.md §4.3's defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:                 "https://api.openai.com/v1",
		Model:                   "text-embedding-3-small",
		Dimensions:              768,
		MaxChars:                8000,
		BatchSize:               32,
		BatchWindow:             50 * time.Millisecond,
		MaxRetries:              3,
		RetryBaseWait:           500 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitOpenFor:          5 * time.Minute,
		MemoryTTL:               10 * time.Minute,
	}
}

// circuitState tracks the open/half-open/closed state machine spec.md §4.3
// describes: 5 consecutive remote failures opens the circuit for 5 minutes.
type circuitState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Embedder is the tier-1(memory)/tier-2(persistent)/tier-3(remote) embedding
// client. Tier 1 is optional (nil MemoryCache disables it); tier 2 is
// optional per-call via Cache.
type Embedder struct {
	cfg   Config
	cache Cache
	mem   MemoryCache
	log   *slog.Logger

	circuit circuitState

	batchMu      sync.Mutex
	batchPending []*pendingEmbed
	batchTimer   *time.Timer
}

// pendingEmbed is one caller's single-text Embed call waiting to ride along
// on the next batched remote call within the accumulation window.
type pendingEmbed struct {
	key    string
	text   string
	result chan embedOutcome
}

type embedOutcome struct {
	vec []float32
	err error
}

// New builds an Embedder. cache may be nil to disable the persistent tier;
// mem may be nil to disable the in-memory tier.
func New(cfg Config, cache Cache, mem MemoryCache, log *slog.Logger) *Embedder {
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Embedder{cfg: cfg, cache: cache, mem: mem, log: log}
}

// Dims reports the configured embedding dimensionality.
func (e *Embedder) Dims() int { return e.cfg.Dimensions }

// truncateUTF8 truncates s to at most maxChars runes without splitting a
// multi-byte rune, matching spec.md §4.3's "truncate at a UTF-8 boundary"
// requirement.
func truncateUTF8(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxChars])
}

func cacheKey(model string, dims int, text string) string {
	return fmt.Sprintf("%s|%d|%s", model, dims, text)
}

// Embed resolves one text to a vector, checking tier 1 then tier 2 before
// joining the remote accumulation window (tier 3). Concurrent single-text
// Embed calls that miss both caches are coalesced: each joins
// e.batchPending and waits on its own result channel, and whichever call
// first reaches BatchSize or whose window timer fires first triggers one
// remote round trip (deduplicated by cache key) for the whole batch,
// per spec.md §4.3's batching requirement.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, e.cfg.MaxChars)
	key := cacheKey(e.cfg.Model, e.cfg.Dimensions, text)

	if e.mem != nil {
		if v, ok := e.mem.Get(key); ok {
			if vec, ok := v.([]float32); ok {
				return vec, nil
			}
		}
	}

	if e.cache != nil {
		if vec, ok, err := e.cache.CacheGetEmbedding(ctx, key); err == nil && ok {
			e.putMemory(key, vec)
			return vec, nil
		}
	}

	req := &pendingEmbed{key: key, text: text, result: make(chan embedOutcome, 1)}
	e.enqueue(req)

	select {
	case out := <-req.result:
		return out.vec, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enqueue adds req to the pending batch, flushing immediately once the
// batch reaches BatchSize and otherwise arming (or leaving armed) a timer
// for BatchWindow so a lone request doesn't wait forever for company.
func (e *Embedder) enqueue(req *pendingEmbed) {
	batchSize := e.cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	e.batchMu.Lock()
	e.batchPending = append(e.batchPending, req)
	if len(e.batchPending) >= batchSize || e.cfg.BatchWindow <= 0 {
		batch := e.batchPending
		e.batchPending = nil
		if e.batchTimer != nil {
			e.batchTimer.Stop()
			e.batchTimer = nil
		}
		e.batchMu.Unlock()
		go e.flushBatch(batch)
		return
	}
	if e.batchTimer == nil {
		e.batchTimer = time.AfterFunc(e.cfg.BatchWindow, e.flushOnTimer)
	}
	e.batchMu.Unlock()
}

func (e *Embedder) flushOnTimer() {
	e.batchMu.Lock()
	batch := e.batchPending
	e.batchPending = nil
	e.batchTimer = nil
	e.batchMu.Unlock()
	if len(batch) > 0 {
		e.flushBatch(batch)
	}
}

// flushBatch performs one remote round trip for the whole accumulated
// batch, deduplicating by cache key so N waiters for the same text cost one
// embedding call, then fans the result (or error) back out to every
// waiter and writes through both cache tiers.
func (e *Embedder) flushBatch(batch []*pendingEmbed) {
	uniqueTexts := make([]string, 0, len(batch))
	indexByKey := make(map[string]int, len(batch))
	for _, req := range batch {
		if _, ok := indexByKey[req.key]; ok {
			continue
		}
		indexByKey[req.key] = len(uniqueTexts)
		uniqueTexts = append(uniqueTexts, req.text)
	}

	vecs, err := e.embedRemoteBatch(context.Background(), uniqueTexts)
	if err != nil {
		for _, req := range batch {
			req.result <- embedOutcome{err: err}
		}
		return
	}

	for key, idx := range indexByKey {
		e.putMemory(key, vecs[idx])
		if e.cache != nil {
			if err := e.cache.CachePutEmbedding(context.Background(), key, vecs[idx]); err != nil {
				e.log.Warn("embed cache write failed", "error", err)
			}
		}
	}

	for _, req := range batch {
		req.result <- embedOutcome{vec: vecs[indexByKey[req.key]]}
	}
}

func (e *Embedder) putMemory(key string, vec []float32) {
	if e.mem == nil {
		return
	}
	e.mem.SetWithTTL(key, vec, int64(len(vec)*4), e.cfg.MemoryTTL)
}

// EmbedBatch embeds many texts, batching remote calls by BatchSize and
// falling back to per-item retries on a partial batch failure, per
// spec.md §4.3's degradation rule. An item that still fails on its own
// retry comes back as a nil entry; the other items are returned normally.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var misses []int
	var missTexts []string

	for i, t := range texts {
		t = truncateUTF8(t, e.cfg.MaxChars)
		key := cacheKey(e.cfg.Model, e.cfg.Dimensions, t)
		if e.mem != nil {
			if v, ok := e.mem.Get(key); ok {
				if vec, ok := v.([]float32); ok {
					out[i] = vec
					continue
				}
			}
		}
		if e.cache != nil {
			if vec, ok, err := e.cache.CacheGetEmbedding(ctx, key); err == nil && ok {
				out[i] = vec
				e.putMemory(key, vec)
				continue
			}
		}
		misses = append(misses, i)
		missTexts = append(missTexts, t)
	}

	for start := 0; start < len(missTexts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(missTexts) {
			end = len(missTexts)
		}
		chunk := missTexts[start:end]
		idxs := misses[start:end]

		vecs, err := e.embedRemoteBatch(ctx, chunk)
		if err != nil {
			// Partial-failure fallback: retry each item individually rather
			// than failing the whole batch, per spec.md §4.3. An item whose
			// retry also fails is left nil.
			for j, idx := range idxs {
				v, ferr := e.embedRemoteBatch(ctx, []string{chunk[j]})
				if ferr != nil {
					continue
				}
				out[idx] = v[0]
				e.writeThrough(ctx, chunk[j], v[0])
			}
			continue
		}
		for j, idx := range idxs {
			out[idx] = vecs[j]
			e.writeThrough(ctx, chunk[j], vecs[j])
		}
	}

	return out, nil
}

func (e *Embedder) writeThrough(ctx context.Context, text string, vec []float32) {
	key := cacheKey(e.cfg.Model, e.cfg.Dimensions, text)
	e.putMemory(key, vec)
	if e.cache != nil {
		if err := e.cache.CachePutEmbedding(ctx, key, vec); err != nil {
			e.log.Warn("embed cache write failed", "error", err)
		}
	}
}

// embedRemoteBatch calls the remote API with retry and circuit-breaker
// protection, per spec.md §4.3.
func (e *Embedder) embedRemoteBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if open, remaining := e.circuitOpen(); open {
		return nil, memerr.New(memerr.KindEmbedCircuit,
			fmt.Sprintf("embedding circuit open for %s", remaining), true)
	}

	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := e.cfg.RetryBaseWait * time.Duration(1<<uint(attempt-1))
			wait += time.Duration(rand.Int63n(int64(wait) / 2))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		vecs, retryable, err := e.callRemote(ctx, texts)
		if err == nil {
			e.circuit = circuitState{}
			for _, v := range vecs {
				if len(v) != e.cfg.Dimensions {
					return nil, memerr.New(memerr.KindEmbedDimMismatch,
						fmt.Sprintf("embedding returned %d dims, expected %d", len(v), e.cfg.Dimensions), false)
				}
			}
			return vecs, nil
		}

		lastErr = err
		if !retryable {
			e.recordFailure()
			return nil, err
		}
		e.recordFailure()
	}
	return nil, memerr.Wrap(memerr.KindEmbedTransient, "embedding retries exhausted", false, lastErr)
}

func (e *Embedder) circuitOpen() (bool, time.Duration) {
	if e.circuit.openUntil.IsZero() || time.Now().After(e.circuit.openUntil) {
		return false, 0
	}
	return true, time.Until(e.circuit.openUntil)
}

func (e *Embedder) recordFailure() {
	e.circuit.consecutiveFailures++
	if e.circuit.consecutiveFailures >= e.cfg.CircuitFailureThreshold {
		e.circuit.openUntil = time.Now().Add(e.cfg.CircuitOpenFor)
	}
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// callRemote performs one HTTP round trip against the OpenAI-compatible
// /v1/embeddings endpoint, the way the teacher's OpenAIEmbedder.Embed does,
// generalized to batched input and network/5xx/429-only retryability.
func (e *Embedder) callRemote(ctx context.Context, texts []string) ([][]float32, bool, error) {
	body, err := json.Marshal(embedRequest{Input: texts, Model: e.cfg.Model})
	if err != nil {
		return nil, false, memerr.Wrap(memerr.KindEmbedFatal, "marshal embed request", false, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, false, memerr.Wrap(memerr.KindEmbedFatal, "build embed request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.cfg.HTTP.Do(req)
	if err != nil {
		return nil, true, memerr.Wrap(memerr.KindEmbedTransient, "embed request failed", true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		b, _ := io.ReadAll(resp.Body)
		return nil, true, memerr.New(memerr.KindEmbedTransient,
			fmt.Sprintf("embed provider %d: %s", resp.StatusCode, string(b)), true)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, false, memerr.New(memerr.KindEmbedFatal,
			fmt.Sprintf("embed provider %d: %s", resp.StatusCode, string(b)), false)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, memerr.Wrap(memerr.KindEmbedFatal, "decode embed response", false, err)
	}
	if len(out.Data) != len(texts) {
		return nil, false, memerr.New(memerr.KindEmbedFatal,
			fmt.Sprintf("embed provider returned %d vectors for %d inputs", len(out.Data), len(texts)), false)
	}
	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vecs[i] = d.Embedding
	}
	return vecs, false, nil
}
