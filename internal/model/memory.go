// Package model defines the core memory data types shared across the
// recall and lifecycle engine.
package model

import "time"

// Category is the coarse classification of a memory's content.
type Category string

const (
	CategoryQAPair       Category = "qa_pair"
	CategoryUser         Category = "user"
	CategoryAssistant    Category = "assistant"
	CategoryFact         Category = "fact"
	CategoryPreference   Category = "preference"
	CategoryRule         Category = "rule"
	CategoryConversation Category = "conversation"
)

// ValidCategories are the categories accepted on write.
var ValidCategories = map[Category]bool{
	CategoryQAPair:       true,
	CategoryUser:         true,
	CategoryAssistant:    true,
	CategoryFact:         true,
	CategoryPreference:   true,
	CategoryRule:         true,
	CategoryConversation: true,
}

// EmbeddingStatus tracks whether a memory's vector is usable.
type EmbeddingStatus string

const (
	EmbeddingPresent EmbeddingStatus = "present"
	EmbeddingPending EmbeddingStatus = "pending"
	EmbeddingFailed  EmbeddingStatus = "failed"
)

// Memory is the primary persisted unit: a single durable recollection.
type Memory struct {
	ID              string          `json:"id"`
	Agent           string          `json:"agent"`
	Namespace       string          `json:"namespace,omitempty"`
	Text            string          `json:"text"`
	NormalizedText  string          `json:"normalized_text"`
	Category        Category        `json:"category"`
	MemoryType      string          `json:"memory_type"`
	Importance      float64         `json:"importance"`
	Strength        float64         `json:"strength"`
	CreatedAt       time.Time       `json:"created_at"`
	LastReinforced  time.Time       `json:"last_reinforced_at"`
	LastAccessed    time.Time       `json:"last_accessed_at"`
	LastDecayedAt   time.Time       `json:"last_decayed_at,omitempty"`
	AccessCount     int             `json:"access_count"`
	ReinforceCount  int             `json:"reinforce_count"`
	Pinned          bool            `json:"pinned"`
	SoftDeletedAt   *time.Time      `json:"soft_deleted_at,omitempty"`
	Session         string          `json:"session,omitempty"`
	Source          string          `json:"source,omitempty"`
	Provenance      string          `json:"provenance,omitempty"`
	EmbeddingStatus EmbeddingStatus `json:"embedding_status"`
	// SupersededBy is the id of the memory that replaced this one, set only
	// when this memory was soft-deleted because another memory superseded
	// it (write-merge's superseded outcome, or a consolidation loser folded
	// into its winner). DeleteReason carries the free-text reason for every
	// other soft-delete (GC, forget, conflict resolution) so the two never
	// collide in the same column.
	SupersededBy string `json:"superseded_by,omitempty"`
	DeleteReason string `json:"delete_reason,omitempty"`
	Ambiguous    bool   `json:"ambiguous,omitempty"`

	// Embedding is only populated when a caller explicitly asks for it
	// (export, write-merge comparison); recall paths keep vectors in the
	// vector index and never hydrate this field on the wire response.
	Embedding []float32 `json:"embedding,omitempty"`
}

// ConfidenceTier buckets a final fused/reranked score for display.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "HIGH"
	TierMedium ConfidenceTier = "MEDIUM"
	TierLow    ConfidenceTier = "LOW"
)

// TierFromScore assigns a confidence tier from a final score in [0,1].
func TierFromScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.7:
		return TierHigh
	case score >= 0.4:
		return TierMedium
	default:
		return TierLow
	}
}

// SearchMode annotates which candidate layers a recall actually used.
type SearchMode string

const (
	SearchFull              SearchMode = "full"
	SearchDegradedNoVector  SearchMode = "degraded_no_vector"
	SearchDegradedNoLexical SearchMode = "degraded_no_lexical"
)

// LayerScores carries the per-layer raw scores a RecallResult was built from.
type LayerScores struct {
	Semantic        float64 `json:"semantic"`
	Lexical         float64 `json:"lexical"`
	Recency         float64 `json:"recency"`
	Strength        float64 `json:"strength"`
	Importance      float64 `json:"importance"`
	RerankerPrimary float64 `json:"reranker_primary,omitempty"`
	RerankerSecond  float64 `json:"reranker_secondary,omitempty"`
	HasSecondary    bool    `json:"-"`
}

// RecallResult is the transient, caller-facing shape of a recalled memory.
type RecallResult struct {
	Memory         Memory         `json:"memory"`
	Scores         LayerScores    `json:"scores"`
	Score          float64        `json:"score"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier"`
	SearchMode     SearchMode     `json:"search_mode"`
	Cached         bool           `json:"cached"`
}

// Relation is the knowledge-graph side table's external shape. The core
// never reads or writes relation content; it only rewrites SubjectID and
// ObjectID references during merge and purge.
type Relation struct {
	SubjectID string `json:"subject_id"`
	Predicate string `json:"predicate"`
	ObjectID  string `json:"object_id"`
}

// Filter is the common query/maintenance filter grammar from spec.md §4.1.
type Filter struct {
	Agent              string
	Namespace          string
	Category           Category
	IncludeSoftDeleted bool
	MinImportance      float64
	TimeRangeStart     *time.Time
	TimeRangeEnd       *time.Time
}
