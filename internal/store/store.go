// Package store implements the per-agent embedded Store from spec.md §4.1:
// one SQLite file co-hosting a relational memory table, a vector index, and
// a lexical (FTS5 trigram) index. The relational and lexical tables keep the
// teacher's schema-and-migration idiom; the vector index needs the sqlite-vec
// C extension (the way papercomputeco-tapes loads it), which only the cgo
// mattn/go-sqlite3 driver can load, so the whole Store runs on that one
// driver rather than the teacher's pure-Go modernc.org/sqlite — see
// DESIGN.md for why modernc.org/sqlite was dropped instead of run alongside
// it on a second connection.
package store

import (
	"context"
	"time"

	"github.com/rcliao/agent-memory/internal/model"
)

// PutParams holds parameters for inserting a new memory.
type PutParams struct {
	ID             string
	Agent          string
	Namespace      string
	Text           string
	NormalizedText string
	Category       model.Category
	MemoryType     string
	Importance     float64
	Session        string
	Source         string
	Provenance     string
	Embedding      []float32 // nil if not yet embedded
}

// Patch is a partial update to a memory's mutable fields. Nil fields are
// left unchanged.
type Patch struct {
	Strength        *float64
	Importance      *float64
	ReinforceCount  *int
	AccessCount     *int
	LastReinforced  *time.Time
	LastAccessed    *time.Time
	LastDecayedAt   *time.Time
	Pinned          *bool
	SoftDeletedAt   *time.Time
	EmbeddingStatus *model.EmbeddingStatus
	SupersededBy    *string
	DeleteReason    *string
	Ambiguous       *bool
	Provenance      *string
}

// VectorHit is one result from a vector top-K query, ordered ascending by
// Distance (cosine distance; lower is more similar).
type VectorHit struct {
	ID       string
	Distance float64
}

// LexicalHit is one result from a lexical top-K query, ordered descending
// by Score (BM25-derived rank score; higher is more relevant).
type LexicalHit struct {
	ID    string
	Score float64
}

// Store is the per-agent embedded store contract from spec.md §4.1. All
// operations are implicitly scoped to the agent the Store was opened for.
type Store interface {
	Insert(ctx context.Context, p PutParams) (*model.Memory, error)
	Get(ctx context.Context, id string) (*model.Memory, error)
	UpdateFields(ctx context.Context, id string, patch Patch) error
	// SoftDelete marks id deleted and records reason in DeleteReason. It
	// never touches SupersededBy; callers that are soft-deleting a loser in
	// favor of a specific winning memory set SupersededBy themselves via
	// UpdateFields first.
	SoftDelete(ctx context.Context, id string, reason string) error
	HardDelete(ctx context.Context, id string) error
	SetEmbedding(ctx context.Context, id string, vec []float32) error

	VectorTopK(ctx context.Context, queryVec []float32, k int, filter model.Filter) ([]VectorHit, error)
	LexicalTopK(ctx context.Context, normalizedQuery string, k int, filter model.Filter) ([]LexicalHit, error)

	ScanForMaintenance(ctx context.Context, pred func(model.Memory) bool) ([]model.Memory, error)

	Pin(ctx context.Context, id string) error
	Unpin(ctx context.Context, id string) error

	PutRelation(ctx context.Context, rel model.Relation) error
	ListRelations(ctx context.Context, memoryID string) ([]model.Relation, error)
	RewriteRelations(ctx context.Context, loserID, winnerID string) error
	DeleteRelationsFor(ctx context.Context, id string) error

	Export(ctx context.Context, filter model.Filter) ([]model.Memory, error)
	Import(ctx context.Context, records []model.Memory) (imported, skipped int, err error)

	CacheGetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	CachePutEmbedding(ctx context.Context, key string, vec []float32) error

	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Stats summarizes one agent's store for MetricsHub and /v1/stats.
type Stats struct {
	TotalMemories    int
	ActiveMemories   int
	VectorlessCount  int
	PinnedCount      int
	DBSizeBytes      int64
	Namespaces       map[string]int
}
