package store

import (
	"context"
	"database/sql"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
)

// Export returns every memory matching filter, for JSON backup per
// spec.md §4.1. Vectors are hydrated onto Memory.Embedding so a round trip
// through Import preserves them.
func (s *SQLiteStore) Export(ctx context.Context, filter model.Filter) ([]model.Memory, error) {
	filter.IncludeSoftDeleted = true // backups must capture soft-deleted rows too
	where, args := filterClause(filter, "m")
	rows, err := s.db.QueryContext(ctx, memorySelectCols+` FROM memory m WHERE `+where, args...)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "export query", false, err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, memerr.Wrap(memerr.KindStoreIO, "scan export row", false, err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "iterate export rows", false, err)
	}
	// The pool holds a single connection, so vectors are read only after
	// the row cursor is closed.
	rows.Close()
	for i := range out {
		if vec, err := s.getVector(ctx, out[i].ID); err == nil && vec != nil {
			out[i].Embedding = vec
		}
	}
	return out, nil
}

func (s *SQLiteStore) getVector(ctx context.Context, id string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT v.embedding FROM vec_memory v
		JOIN vec_memory_map map ON map.rowid = v.id_rowid
		WHERE map.id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deserializeFloat32(blob), nil
}

// Import is idempotent by id: records whose id already exists are skipped,
// matching the P0 regression behavior in the Python reference
// (test_import_same_id_twice): imported and skipped counts are reported
// separately and the existing row's id is preserved verbatim.
func (s *SQLiteStore) Import(ctx context.Context, records []model.Memory) (imported, skipped int, err error) {
	for _, m := range records {
		_, getErr := s.Get(ctx, m.ID)
		if getErr == nil {
			skipped++
			continue
		}
		if !memerr.NotFound(getErr) {
			return imported, skipped, getErr
		}

		_, insErr := s.Insert(ctx, PutParams{
			ID:             m.ID,
			Agent:          m.Agent,
			Namespace:      m.Namespace,
			Text:           m.Text,
			NormalizedText: m.NormalizedText,
			Category:       m.Category,
			MemoryType:     m.MemoryType,
			Importance:     m.Importance,
			Session:        m.Session,
			Source:         m.Source,
			Provenance:     m.Provenance,
			Embedding:      m.Embedding,
		})
		if insErr != nil {
			return imported, skipped, insErr
		}
		imported++
	}
	return imported, skipped, nil
}
