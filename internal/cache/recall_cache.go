// Package cache implements RecallCache from spec.md §4.9: a process-local,
// per-(agent, namespace, query, filter, min_score) TTL cache of ranked
// recall results, updated by compare-and-set when the secondary reranker
// pass finishes in the background. Grounded on the teacher's general
// preference for small sync.Mutex-guarded maps over a cache library (no
// example repo in the pack pulls in an external cache package for anything
// this local — see DESIGN.md).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rcliao/agent-memory/internal/model"
)

// Key identifies one cached recall.
type Key struct {
	Agent           string
	Namespace       string
	NormalizedQuery string
	FilterHash      string
	MinScore        float64
}

// Fingerprint collapses a Key into the single string used as the map key,
// so two logically identical recalls always hit the same entry, and a
// differing min_score never collides with another threshold's cached
// result (the correction from test_p0_fixes.py).
func (k Key) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%.6f", k.Agent, k.Namespace, k.NormalizedQuery, k.FilterHash, k.MinScore)
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	results    []model.RecallResult
	generation uint64
	expiresAt  time.Time
}

// RecallCache is the TTL, compare-and-set cache.
type RecallCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*entry
	agentOf map[string]string // fingerprint -> agent, so Invalidate can scope without rehashing every Key
}

// New builds a RecallCache with the given TTL.
func New(ttl time.Duration) *RecallCache {
	return &RecallCache{ttl: ttl, entries: map[string]*entry{}, agentOf: map[string]string{}}
}

// Lookup returns the cached results for key if present and unexpired, and
// the generation token the caller must present to Refresh if it later
// recomputes this entry via the secondary rerank pass.
func (c *RecallCache) Lookup(key Key, now time.Time) ([]model.RecallResult, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.Fingerprint()]
	if !ok || now.After(e.expiresAt) {
		return nil, 0, false
	}
	return e.results, e.generation, true
}

// Put inserts or replaces the cached entry for key. A new key starts at
// generation 1; replacing an existing entry bumps its generation, so a
// Refresh begun against the old generation is ignored.
func (c *RecallCache) Put(key Key, results []model.RecallResult, now time.Time) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	fp := key.Fingerprint()
	gen := uint64(1)
	if old, ok := c.entries[fp]; ok {
		gen = old.generation + 1
	}
	c.entries[fp] = &entry{results: results, generation: gen, expiresAt: now.Add(c.ttl)}
	c.agentOf[fp] = key.Agent
	return gen
}

// Refresh performs the secondary reranker's compare-and-set write: it only
// applies if the entry is still at expectGeneration, i.e. nobody evicted or
// overwrote it since the background pass started. The entry's expiry is
// left untouched — spec.md §4.9 requires "the updated ordering is stored
// under the same key without changing TTL," so a background refresh must
// not extend how long the entry lives. Returns false (ignored) when the key
// was evicted or superseded, matching spec.md §6's "ignore if key evicted"
// contract for background reranker writes.
func (c *RecallCache) Refresh(key Key, expectGeneration uint64, results []model.RecallResult, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	fp := key.Fingerprint()
	e, ok := c.entries[fp]
	if !ok || e.generation != expectGeneration {
		return false
	}
	c.entries[fp] = &entry{results: results, generation: e.generation + 1, expiresAt: e.expiresAt}
	return true
}

// Invalidate drops every cached entry for one agent, used after a write,
// merge, or consolidation touches that agent's memories.
func (c *RecallCache) Invalidate(agent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, a := range c.agentOf {
		if a == agent {
			delete(c.entries, fp)
			delete(c.agentOf, fp)
		}
	}
}
