package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// SQLiteStore implements Store using a single SQLite file per agent,
// combining the relational memory table, the FTS5 trigram lexical index,
// and a sqlite-vec vector index — the three co-resident indices spec.md
// §4.1 names.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	agent      string
	dimensions int
	log        *slog.Logger
}

const schemaVersion = 1

// Open opens or creates the SQLite file for one agent at dbPath, exactly the
// way the teacher's NewSQLiteStore creates the data directory before
// opening, generalized with the sqlite-vec extension load.
func Open(dbPath, agent string, dimensions int, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "create db dir", false, err)
	}

	sqlite_vec.Auto()

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "open db", false, err)
	}
	db.SetMaxOpenConns(1) // single-writer, multiple-reader contract via one serialized connection

	s := &SQLiteStore{db: db, path: dbPath, agent: agent, dimensions: dimensions, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, memerr.Wrap(memerr.KindStoreIntegrity, "migrate", false, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memory (
		id                TEXT PRIMARY KEY,
		agent             TEXT NOT NULL,
		namespace         TEXT NOT NULL DEFAULT '',
		text              TEXT NOT NULL,
		normalized_text   TEXT NOT NULL,
		category          TEXT NOT NULL DEFAULT 'conversation',
		memory_type       TEXT NOT NULL DEFAULT '',
		importance        REAL NOT NULL DEFAULT 0,
		strength          REAL NOT NULL DEFAULT 1.0,
		created_at        INTEGER NOT NULL,
		last_reinforced_at INTEGER NOT NULL,
		last_accessed_at  INTEGER NOT NULL,
		last_decayed_at   INTEGER NOT NULL DEFAULT 0,
		access_count      INTEGER NOT NULL DEFAULT 0,
		reinforce_count   INTEGER NOT NULL DEFAULT 0,
		pinned            INTEGER NOT NULL DEFAULT 0,
		soft_deleted_at   INTEGER,
		session           TEXT NOT NULL DEFAULT '',
		source            TEXT NOT NULL DEFAULT '',
		provenance        TEXT NOT NULL DEFAULT '',
		embedding_status  TEXT NOT NULL DEFAULT 'pending',
		superseded_by     TEXT NOT NULL DEFAULT '',
		delete_reason     TEXT NOT NULL DEFAULT '',
		ambiguous         INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_memory_agent_ns ON memory(agent, namespace);
	CREATE INDEX IF NOT EXISTS idx_memory_category ON memory(agent, category);
	CREATE INDEX IF NOT EXISTS idx_memory_created ON memory(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memory_deleted ON memory(soft_deleted_at);
	CREATE INDEX IF NOT EXISTS idx_memory_strength ON memory(agent, strength);

	CREATE VIRTUAL TABLE IF NOT EXISTS fts_memory USING fts5(
		id UNINDEXED,
		normalized_text,
		tokenize = 'trigram'
	);

	CREATE TABLE IF NOT EXISTS embed_cache (
		cache_key  TEXT PRIMARY KEY,
		embedding  BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS kg_relation (
		subject_id TEXT NOT NULL,
		predicate  TEXT NOT NULL,
		object_id  TEXT NOT NULL,
		PRIMARY KEY (subject_id, predicate, object_id)
	);
	CREATE INDEX IF NOT EXISTS idx_kg_subject ON kg_relation(subject_id);
	CREATE INDEX IF NOT EXISTS idx_kg_object ON kg_relation(object_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply base schema: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_memory USING vec0(
			id_rowid INTEGER PRIMARY KEY,
			embedding float[%d]
		)`, s.dimensions)
	if _, err := s.db.Exec(createVec); err != nil {
		return fmt.Errorf("create vec_memory: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_memory_map (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id    TEXT NOT NULL UNIQUE
		)`); err != nil {
		return fmt.Errorf("create vec_memory_map: %w", err)
	}

	var current string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&current)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`INSERT INTO meta(key, value) VALUES ('schema_version', ?)`, fmt.Sprint(schemaVersion))
		if err != nil {
			return fmt.Errorf("write schema_version: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
