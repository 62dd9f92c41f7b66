// Package pool implements StoragePool from spec.md §4.2: it maps agent ids
// to their Store, lazily opening them on first use and keeping them open for
// the process lifetime. Grounded on the teacher's getDBPath/openStore
// pattern in internal/cli/root.go, generalized to a multi-agent registry.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/store"
)

// AllAgents is the reserved sentinel meaning "fan out across every open
// agent" on reads and maintenance. It is rejected on single-agent write
// paths, matching the Python reference's "cannot store to 'all'" check.
const AllAgents = "all"

// agentIDPattern is the conservative identifier spec.md §4.2 requires to
// preclude path traversal: letters, digits, dash, underscore, 1-64 chars.
var agentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateAgentID normalizes and validates an agent id. An empty id maps to
// "main" (matching the Python reference's empty-agent behavior); "all" and
// anything containing path separators or ".." is rejected.
func ValidateAgentID(agent string) (string, error) {
	if agent == "" {
		return "main", nil
	}
	if agent == AllAgents {
		return "", memerr.New(memerr.KindValidation, "agent id 'all' is reserved for fan-out reads", false)
	}
	if !agentIDPattern.MatchString(agent) {
		return "", memerr.New(memerr.KindValidation, fmt.Sprintf("invalid agent id %q", agent), false)
	}
	return agent, nil
}

// Opener constructs a Store for one agent's database file.
type Opener func(dbPath, agent string) (store.Store, error)

// Pool is the StoragePool: agent → Store, lazily opened, kept for process
// lifetime, closed on shutdown.
type Pool struct {
	dataDir string
	opener  Opener
	log     *slog.Logger

	mu     sync.Mutex
	stores map[string]store.Store
}

// New builds a Pool rooted at dataDir using opener to construct each agent's
// Store.
func New(dataDir string, opener Opener, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		dataDir: dataDir,
		opener:  opener,
		log:     log,
		stores:  map[string]store.Store{},
	}
}

func (p *Pool) pathFor(agent string) string {
	return filepath.Join(p.dataDir, "memory-"+agent+".sqlite")
}

// Get returns the Store for agent, opening it on first use. agent must
// already be validated by ValidateAgentID; Get does not re-validate so that
// "all" fan-out callers can still resolve a concrete per-agent Store when
// iterating Agents().
func (p *Pool) Get(agent string) (store.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.stores[agent]; ok {
		return s, nil
	}

	s, err := p.opener(p.pathFor(agent), agent)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "open store for agent "+agent, false, err)
	}
	p.stores[agent] = s
	p.log.Info("opened agent store", "agent", agent)
	return s, nil
}

// Agents lists every agent currently open in the pool, sorted for
// deterministic fan-out ordering.
func (p *Pool) Agents() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.stores))
	for a := range p.stores {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// DiscoverAgents lists agent ids with an on-disk store file under dataDir,
// whether or not that store is currently open in this Pool. This lets "all"
// fan-out maintenance calls reach agents from a prior process run, matching
// spec.md §4.2's "a maintenance call iterates all stores."
func (p *Pool) DiscoverAgents() []string {
	entries, err := os.ReadDir(p.dataDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "memory-") || !strings.HasSuffix(name, ".sqlite") {
			continue
		}
		agent := strings.TrimSuffix(strings.TrimPrefix(name, "memory-"), ".sqlite")
		if agent != "" {
			out = append(out, agent)
		}
	}
	sort.Strings(out)
	return out
}

// allAgents unions the currently-open agents with every on-disk store under
// dataDir, deduplicated and sorted, for "all" fan-out.
func (p *Pool) allAgents() []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range p.Agents() {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range p.DiscoverAgents() {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

// CloseAll closes every open Store, for graceful shutdown.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for agent, s := range p.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close store for agent %s: %w", agent, err)
		}
	}
	p.stores = map[string]store.Store{}
	return firstErr
}

// ForEachAgent resolves "all" into every known agent (those already open
// plus those with a store file in the data dir, via allAgents) and runs fn
// against each one's Store, aggregating errors. A concrete agent id runs fn
// once. This backs the maintenance fan-out spec.md §6 describes for
// /v1/decay, /v1/consolidate, /v1/gc, etc.
func (p *Pool) ForEachAgent(ctx context.Context, agent string, fn func(ctx context.Context, agent string, s store.Store) error) error {
	if agent != AllAgents {
		s, err := p.Get(agent)
		if err != nil {
			return err
		}
		return fn(ctx, agent, s)
	}

	var errs []error
	for _, a := range p.allAgents() {
		s, err := p.Get(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := fn(ctx, a, s); err != nil {
			errs = append(errs, fmt.Errorf("agent %s: %w", a, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("fan-out failed for %d agent(s): %v", len(errs), errs)
	}
	return nil
}
