package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"time"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
)

func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// Insert atomically inserts a new memory into the relational, lexical, and
// (if embedding is present) vector indices. A failure rolls back all three,
// matching spec.md §4.1's "fails → rollback all".
func (s *SQLiteStore) Insert(ctx context.Context, p PutParams) (*model.Memory, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "begin insert tx", true, err)
	}
	defer tx.Rollback()

	status := model.EmbeddingPending
	if p.Embedding != nil {
		status = model.EmbeddingPresent
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memory (
			id, agent, namespace, text, normalized_text, category, memory_type,
			importance, strength, created_at, last_reinforced_at, last_accessed_at,
			last_decayed_at, access_count, reinforce_count, pinned, soft_deleted_at, session, source,
			provenance, embedding_status, superseded_by, delete_reason, ambiguous
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1.0, ?, ?, ?, ?, 0, 0, 0, NULL, ?, ?, ?, ?, '', '', 0)
	`, p.ID, p.Agent, p.Namespace, p.Text, p.NormalizedText, string(p.Category), p.MemoryType,
		p.Importance, now.Unix(), now.Unix(), now.Unix(), now.Unix(), p.Session, p.Source, p.Provenance, string(status))
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreConflict, "insert memory row", false, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO fts_memory(id, normalized_text) VALUES (?, ?)`, p.ID, p.NormalizedText); err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "insert fts row", false, err)
	}

	if p.Embedding != nil {
		if err := s.insertVectorTx(ctx, tx, p.ID, p.Embedding); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "commit insert tx", true, err)
	}

	return &model.Memory{
		ID: p.ID, Agent: p.Agent, Namespace: p.Namespace, Text: p.Text,
		NormalizedText: p.NormalizedText, Category: p.Category, MemoryType: p.MemoryType,
		Importance: p.Importance, Strength: 1.0, CreatedAt: now, LastReinforced: now,
		LastAccessed: now, LastDecayedAt: now, Session: p.Session, Source: p.Source, Provenance: p.Provenance,
		EmbeddingStatus: status,
	}, nil
}

func (s *SQLiteStore) insertVectorTx(ctx context.Context, tx *sql.Tx, id string, vec []float32) error {
	var rowid int64
	err := tx.QueryRowContext(ctx, `SELECT rowid FROM vec_memory_map WHERE id = ?`, id).Scan(&rowid)
	switch {
	case err == sql.ErrNoRows:
		res, insErr := tx.ExecContext(ctx, `INSERT INTO vec_memory_map(id) VALUES (?)`, id)
		if insErr != nil {
			return memerr.Wrap(memerr.KindStoreIO, "insert vec map row", false, insErr)
		}
		rowid, _ = res.LastInsertId()
	case err != nil:
		return memerr.Wrap(memerr.KindStoreIO, "lookup vec map row", false, err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memory WHERE id_rowid = ?`, rowid); err != nil {
			return memerr.Wrap(memerr.KindStoreIO, "clear old vector", false, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_memory(id_rowid, embedding) VALUES (?, ?)`,
		rowid, serializeFloat32(vec)); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "insert vector", false, err)
	}
	return nil
}

// Get fetches a single memory by id, including soft-deleted rows (callers
// filter those out where the spec requires it).
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx, memorySelectCols+` FROM memory WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, memerr.New(memerr.KindStoreNotFound, "memory not found: "+id, false)
	}
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "scan memory", false, err)
	}
	return m, nil
}

const memorySelectCols = `SELECT id, agent, namespace, text, normalized_text, category, memory_type,
	importance, strength, created_at, last_reinforced_at, last_accessed_at, last_decayed_at,
	access_count, reinforce_count, pinned, soft_deleted_at, session, source,
	provenance, embedding_status, superseded_by, delete_reason, ambiguous`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (*model.Memory, error) {
	var m model.Memory
	var category, status string
	var createdAt, lastReinforced, lastAccessed, lastDecayed int64
	var softDeletedAt sql.NullInt64
	var pinned, ambiguous int

	err := row.Scan(&m.ID, &m.Agent, &m.Namespace, &m.Text, &m.NormalizedText, &category,
		&m.MemoryType, &m.Importance, &m.Strength, &createdAt, &lastReinforced, &lastAccessed, &lastDecayed,
		&m.AccessCount, &m.ReinforceCount, &pinned, &softDeletedAt, &m.Session, &m.Source,
		&m.Provenance, &status, &m.SupersededBy, &m.DeleteReason, &ambiguous)
	if err != nil {
		return nil, err
	}

	m.Category = model.Category(category)
	m.EmbeddingStatus = model.EmbeddingStatus(status)
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	m.LastReinforced = time.Unix(lastReinforced, 0).UTC()
	m.LastAccessed = time.Unix(lastAccessed, 0).UTC()
	if lastDecayed > 0 {
		m.LastDecayedAt = time.Unix(lastDecayed, 0).UTC()
	}
	m.Pinned = pinned != 0
	m.Ambiguous = ambiguous != 0
	if softDeletedAt.Valid {
		t := time.Unix(softDeletedAt.Int64, 0).UTC()
		m.SoftDeletedAt = &t
	}
	return &m, nil
}

// UpdateFields applies a partial patch to a memory's mutable fields.
func (s *SQLiteStore) UpdateFields(ctx context.Context, id string, patch Patch) error {
	sets := []string{}
	args := []interface{}{}

	if patch.Strength != nil {
		sets = append(sets, "strength = ?")
		args = append(args, *patch.Strength)
	}
	if patch.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *patch.Importance)
	}
	if patch.ReinforceCount != nil {
		sets = append(sets, "reinforce_count = ?")
		args = append(args, *patch.ReinforceCount)
	}
	if patch.AccessCount != nil {
		sets = append(sets, "access_count = ?")
		args = append(args, *patch.AccessCount)
	}
	if patch.LastReinforced != nil {
		sets = append(sets, "last_reinforced_at = ?")
		args = append(args, patch.LastReinforced.Unix())
	}
	if patch.LastAccessed != nil {
		sets = append(sets, "last_accessed_at = ?")
		args = append(args, patch.LastAccessed.Unix())
	}
	if patch.LastDecayedAt != nil {
		sets = append(sets, "last_decayed_at = ?")
		args = append(args, patch.LastDecayedAt.Unix())
	}
	if patch.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, boolToInt(*patch.Pinned))
	}
	if patch.SoftDeletedAt != nil {
		sets = append(sets, "soft_deleted_at = ?")
		args = append(args, patch.SoftDeletedAt.Unix())
	}
	if patch.EmbeddingStatus != nil {
		sets = append(sets, "embedding_status = ?")
		args = append(args, string(*patch.EmbeddingStatus))
	}
	if patch.SupersededBy != nil {
		sets = append(sets, "superseded_by = ?")
		args = append(args, *patch.SupersededBy)
	}
	if patch.DeleteReason != nil {
		sets = append(sets, "delete_reason = ?")
		args = append(args, *patch.DeleteReason)
	}
	if patch.Ambiguous != nil {
		sets = append(sets, "ambiguous = ?")
		args = append(args, boolToInt(*patch.Ambiguous))
	}
	if patch.Provenance != nil {
		sets = append(sets, "provenance = ?")
		args = append(args, *patch.Provenance)
	}

	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE memory SET " + joinComma(sets) + " WHERE id = ?"
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "update memory fields", false, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return memerr.New(memerr.KindStoreNotFound, "memory not found: "+id, false)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// SoftDelete marks a memory logically deleted; it stays in all three
// indices until hard purge but is excluded from retrieval. reason is a
// free-text note (e.g. "gc_weak_stale_unused", "forget") recorded in
// DeleteReason; it never touches SupersededBy, which only ever holds the id
// of a memory that superseded this one and is set via UpdateFields by
// whichever caller knows that id.
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string, reason string) error {
	now := time.Now().UTC()
	patch := Patch{SoftDeletedAt: &now}
	if reason != "" {
		patch.DeleteReason = &reason
	}
	return s.UpdateFields(ctx, id, patch)
}

// HardDelete removes a memory from all three indices and any relations
// pointing at it, per spec.md §3's Relation cleanup rule.
func (s *SQLiteStore) HardDelete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "begin hard delete tx", true, err)
	}
	defer tx.Rollback()

	var rowid sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT rowid FROM vec_memory_map WHERE id = ?`, id).Scan(&rowid); err == nil && rowid.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memory WHERE id_rowid = ?`, rowid.Int64); err != nil {
			return memerr.Wrap(memerr.KindStoreIO, "delete vector", false, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memory_map WHERE rowid = ?`, rowid.Int64); err != nil {
			return memerr.Wrap(memerr.KindStoreIO, "delete vec map", false, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_memory WHERE id = ?`, id); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "delete fts row", false, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory WHERE id = ?`, id); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "delete memory row", false, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kg_relation WHERE subject_id = ? OR object_id = ?`, id, id); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "delete relations", false, err)
	}

	return tx.Commit()
}

// SetEmbedding (re)writes a memory's vector and flips embedding_status to
// present, used by write-time embedding, backfill, and reinforcement merges.
func (s *SQLiteStore) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "begin set embedding tx", true, err)
	}
	defer tx.Rollback()

	if err := s.insertVectorTx(ctx, tx, id, vec); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE memory SET embedding_status = ? WHERE id = ?`,
		string(model.EmbeddingPresent), id); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "flip embedding status", false, err)
	}
	return tx.Commit()
}

// Pin sets pinned=true. Per spec.md §4.11, strength is left untouched; the
// caller is responsible for "freezing" it for comparison purposes, since
// the value itself doesn't need to change to stop decaying once pinned=true
// is honored by Lifecycle.
func (s *SQLiteStore) Pin(ctx context.Context, id string) error {
	pinned := true
	return s.UpdateFields(ctx, id, Patch{Pinned: &pinned})
}

// Unpin clears pinned and resets last_reinforced_at/last_decayed_at so
// decay resumes from the current strength with a fresh Δt anchor, per
// spec.md §4.11.
func (s *SQLiteStore) Unpin(ctx context.Context, id string) error {
	pinned := false
	now := time.Now().UTC()
	return s.UpdateFields(ctx, id, Patch{Pinned: &pinned, LastReinforced: &now, LastDecayedAt: &now})
}
