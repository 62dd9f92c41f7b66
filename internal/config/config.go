// Package config loads the AGENT_MEMORY_* (legacy ASUMAN_MEMORY_*) environment
// configuration, the way the teacher's internal/cli/root.go reads
// AGENT_MEMORY_DB and falls back to $HOME, generalized to the full option
// set spec.md §6 names plus an optional JSON overlay file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// Weights are the RRF layer weights from spec.md §4.7.
type Weights struct {
	Semantic   float64 `json:"semantic"`
	Lexical    float64 `json:"lexical"`
	Recency    float64 `json:"recency"`
	Strength   float64 `json:"strength"`
	Importance float64 `json:"importance"`
}

// DefaultWeights are spec.md §4.7's defaults (importance pinned at 0.08 per
// DESIGN NOTES §9, not the historical 0.25 bug).
func DefaultWeights() Weights {
	return Weights{Semantic: 0.50, Lexical: 0.25, Recency: 0.10, Strength: 0.07, Importance: 0.08}
}

// RerankerConfig configures one of the two reranker passes.
type RerankerConfig struct {
	Enabled      bool
	Model        string // preset name: fast | balanced | quality, or a literal model id
	TopK         int
	Weight       float64
	Threads      int
	MaxDocChars  int
	Prewarm      bool
}

// Config is the fully resolved core configuration.
type Config struct {
	DataDir string

	ListenAddr string

	EmbedBaseURL     string
	EmbedAPIKey      string
	EmbedModel       string
	Dimensions       int
	MaxEmbedChars    int
	EmbedWorkerOn    bool

	Weights Weights

	RerankerPrimary   RerankerConfig
	RerankerSecondary RerankerConfig

	RecallCacheTTL    time.Duration
	RecallDeadline    time.Duration

	ThetaMerge       float64
	ThetaConsolidate float64
	ConflictMargin   float64

	DecayBaseRate float64
	DecayAlpha    float64
	TauWeak       float64
	TauStale      time.Duration
	TauUnused     time.Duration
	PurgeRetention time.Duration

	BackupRetention time.Duration
}

func envWithLegacy(name string) (string, bool) {
	if v, ok := os.LookupEnv("AGENT_MEMORY_" + name); ok {
		return v, true
	}
	if v, ok := os.LookupEnv("ASUMAN_MEMORY_" + name); ok {
		return v, true
	}
	return "", false
}

func envString(name, def string) string {
	if v, ok := envWithLegacy(name); ok && v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	if v, ok := envWithLegacy(name); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v, ok := envWithLegacy(name); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(name string, def bool) bool {
	if v, ok := envWithLegacy(name); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDurationSeconds(name string, def time.Duration) time.Duration {
	if v, ok := envWithLegacy(name); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

// DefaultDataDir resolves $AGENT_MEMORY_DATA_DIR, else $HOME/.agent-memory,
// else the legacy $HOME/.asuman if that directory already exists, exactly
// per spec.md §4.2 and DESIGN NOTES §9(3).
func DefaultDataDir() string {
	if v, ok := envWithLegacy("DATA_DIR"); ok && v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	primary := filepath.Join(home, ".agent-memory")
	if info, err := os.Stat(primary); err == nil && info.IsDir() {
		return primary
	}
	legacy := filepath.Join(home, ".asuman")
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy
	}
	return primary
}

// FromEnv loads configuration from the environment, applying defaults for
// everything unset.
func FromEnv() *Config {
	c := &Config{
		DataDir:       DefaultDataDir(),
		ListenAddr:    envString("LISTEN_ADDR", ":8085"),
		EmbedBaseURL:  envString("EMBED_URL", "https://api.openai.com/v1"),
		EmbedAPIKey:   envString("EMBED_KEY", ""),
		EmbedModel:    envString("EMBED_MODEL", "text-embedding-3-small"),
		Dimensions:    envInt("DIMENSIONS", 768),
		MaxEmbedChars: envInt("MAX_EMBED_CHARS", 8000),
		EmbedWorkerOn: envBool("EMBED_WORKER_ENABLE", true),

		Weights: Weights{
			Semantic:   envFloat("W_SEMANTIC", DefaultWeights().Semantic),
			Lexical:    envFloat("W_KEYWORD", DefaultWeights().Lexical),
			Recency:    envFloat("W_RECENCY", DefaultWeights().Recency),
			Strength:   envFloat("W_STRENGTH", DefaultWeights().Strength),
			Importance: envFloat("W_IMPORTANCE", DefaultWeights().Importance),
		},

		RerankerPrimary: RerankerConfig{
			Enabled:     envBool("RERANK_PRIMARY_ENABLE", true),
			Model:       envString("RERANK_PRIMARY_MODEL", "fast"),
			TopK:        envInt("RERANK_PRIMARY_TOPK", 10),
			Weight:      envFloat("RERANK_PRIMARY_WEIGHT", 0.22),
			Threads:     envInt("RERANK_PRIMARY_THREADS", 2),
			MaxDocChars: envInt("RERANK_PRIMARY_MAX_DOC_CHARS", 600),
			Prewarm:     envBool("RERANK_PRIMARY_PREWARM", false),
		},
		RerankerSecondary: RerankerConfig{
			Enabled:     envBool("RERANK_SECONDARY_ENABLE", true),
			Model:       envString("RERANK_SECONDARY_MODEL", "quality"),
			TopK:        envInt("RERANK_SECONDARY_TOPK", 3),
			Weight:      envFloat("RERANK_SECONDARY_WEIGHT", 0.35),
			Threads:     envInt("RERANK_SECONDARY_THREADS", 2),
			MaxDocChars: envInt("RERANK_SECONDARY_MAX_DOC_CHARS", 600),
			Prewarm:     envBool("RERANK_SECONDARY_PREWARM", false),
		},

		RecallCacheTTL: envDurationSeconds("RECALL_CACHE_TTL_SECONDS", 60*time.Second),
		RecallDeadline: envDurationSeconds("RECALL_DEADLINE_SECONDS", 2*time.Second),

		ThetaMerge:       envFloat("THETA_MERGE", 0.85),
		ThetaConsolidate: envFloat("THETA_CONSOLIDATE", 0.90),
		ConflictMargin:   envFloat("CONFLICT_MARGIN", 0.15),

		DecayBaseRate:  envFloat("DECAY_BASE_RATE", 0.15),
		DecayAlpha:     envFloat("DECAY_ALPHA", 2.0),
		TauWeak:        envFloat("TAU_WEAK", 0.1),
		TauStale:       envDurationSeconds("TAU_STALE_SECONDS", 90*24*time.Hour),
		TauUnused:      envDurationSeconds("TAU_UNUSED_SECONDS", 90*24*time.Hour),
		PurgeRetention: envDurationSeconds("PURGE_RETENTION_SECONDS", 30*24*time.Hour),

		BackupRetention: envDurationSeconds("BACKUP_RETENTION_SECONDS", 30*24*time.Hour),
	}
	return c
}

// Overlay applies a JSON overlay file on top of an already-loaded Config.
// Only the keys data_dir, embed_base_url, embed_api_key, embed_model,
// dimensions, max_embed_chars and weights are applied; any other key in the
// file is ignored, and fields absent from the file are left untouched.
// Matches the teacher's preference for encoding/json over an external
// config library for its already-JSON-shaped meta/tags columns.
func (c *Config) Overlay(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return memerr.Wrap(memerr.KindConfig, "read config overlay", false, err)
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(b, &patch); err != nil {
		return memerr.Wrap(memerr.KindConfig, "parse config overlay", false, err)
	}
	for k, raw := range patch {
		if err := c.applyField(k, raw); err != nil {
			return memerr.Wrap(memerr.KindConfig, fmt.Sprintf("apply overlay field %q", k), false, err)
		}
	}
	return nil
}

func (c *Config) applyField(key string, raw json.RawMessage) error {
	switch key {
	case "data_dir":
		return json.Unmarshal(raw, &c.DataDir)
	case "embed_base_url":
		return json.Unmarshal(raw, &c.EmbedBaseURL)
	case "embed_api_key":
		return json.Unmarshal(raw, &c.EmbedAPIKey)
	case "embed_model":
		return json.Unmarshal(raw, &c.EmbedModel)
	case "dimensions":
		return json.Unmarshal(raw, &c.Dimensions)
	case "max_embed_chars":
		return json.Unmarshal(raw, &c.MaxEmbedChars)
	case "weights":
		return json.Unmarshal(raw, &c.Weights)
	}
	return nil // unrecognized overlay keys are ignored, not fatal
}

// Validate enforces the invariants the core needs to start at all.
func (c *Config) Validate() error {
	if c.Dimensions <= 0 {
		return memerr.New(memerr.KindConfig, "dimensions must be positive", false)
	}
	if c.MaxEmbedChars <= 0 {
		return memerr.New(memerr.KindConfig, "max_embed_chars must be positive", false)
	}
	return nil
}
