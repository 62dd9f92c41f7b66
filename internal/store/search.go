package store

import (
	"context"
	"strings"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
)

func filterClause(f model.Filter, alias string) (string, []interface{}) {
	where := []string{alias + ".agent = ?"}
	args := []interface{}{f.Agent}

	if !f.IncludeSoftDeleted {
		where = append(where, alias+".soft_deleted_at IS NULL")
	}
	if f.Namespace != "" {
		where = append(where, alias+".namespace = ?")
		args = append(args, f.Namespace)
	}
	if f.Category != "" {
		where = append(where, alias+".category = ?")
		args = append(args, string(f.Category))
	}
	if f.MinImportance > 0 {
		where = append(where, alias+".importance >= ?")
		args = append(args, f.MinImportance)
	}
	if f.TimeRangeStart != nil {
		where = append(where, alias+".created_at >= ?")
		args = append(args, f.TimeRangeStart.Unix())
	}
	if f.TimeRangeEnd != nil {
		where = append(where, alias+".created_at < ?")
		args = append(args, f.TimeRangeEnd.Unix())
	}
	return strings.Join(where, " AND "), args
}

// VectorTopK implements spec.md §4.1's vector_topk: a cosine-distance
// nearest-neighbor query against the sqlite-vec vector index, joined back
// to the relational table for filtering.
func (s *SQLiteStore) VectorTopK(ctx context.Context, queryVec []float32, k int, filter model.Filter) ([]VectorHit, error) {
	if k <= 0 {
		k = 10
	}
	where, args := filterClause(filter, "m")

	query := `
		SELECT m.id, v.distance
		FROM vec_memory v
		JOIN vec_memory_map map ON map.rowid = v.id_rowid
		JOIN memory m ON m.id = map.id
		WHERE v.embedding MATCH ? AND v.k = ? AND ` + where + `
		ORDER BY v.distance`

	fullArgs := append([]interface{}{serializeFloat32(queryVec), k}, args...)
	rows, err := s.db.QueryContext(ctx, query, fullArgs...)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "vector_topk", true, err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var h VectorHit
		if err := rows.Scan(&h.ID, &h.Distance); err != nil {
			return nil, memerr.Wrap(memerr.KindStoreIO, "scan vector hit", false, err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// LexicalTopK implements spec.md §4.1's lexical_topk over the FTS5 trigram
// index, ranked by SQLite's bm25() auxiliary function (more negative is
// better in FTS5's convention; Score here is already inverted so higher is
// more relevant, matching VectorTopK's "higher/lower is better" asymmetry
// documented in the interface comment).
func (s *SQLiteStore) LexicalTopK(ctx context.Context, normalizedQuery string, k int, filter model.Filter) ([]LexicalHit, error) {
	if k <= 0 {
		k = 10
	}
	if strings.TrimSpace(normalizedQuery) == "" {
		return nil, nil
	}
	where, args := filterClause(filter, "m")

	query := `
		SELECT m.id, bm25(fts_memory) AS rank
		FROM fts_memory f
		JOIN memory m ON m.id = f.id
		WHERE f.normalized_text MATCH ? AND ` + where + `
		ORDER BY rank
		LIMIT ?`

	fullArgs := append([]interface{}{normalizedQuery}, args...)
	fullArgs = append(fullArgs, k)

	rows, err := s.db.QueryContext(ctx, query, fullArgs...)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "lexical_topk", true, err)
	}
	defer rows.Close()

	var hits []LexicalHit
	var maxAbs float64
	type raw struct {
		id   string
		rank float64
	}
	var all []raw
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.id, &r.rank); err != nil {
			return nil, memerr.Wrap(memerr.KindStoreIO, "scan lexical hit", false, err)
		}
		if -r.rank > maxAbs {
			maxAbs = -r.rank
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	for _, r := range all {
		hits = append(hits, LexicalHit{ID: r.id, Score: (-r.rank) / maxAbs})
	}
	return hits, nil
}

// ScanForMaintenance streams all memories (including soft-deleted, so
// Lifecycle can evaluate purge eligibility) matching pred, for this agent.
func (s *SQLiteStore) ScanForMaintenance(ctx context.Context, pred func(model.Memory) bool) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, memorySelectCols+` FROM memory WHERE agent = ?`, s.agent)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "scan for maintenance", false, err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, memerr.Wrap(memerr.KindStoreIO, "scan memory row", false, err)
		}
		if pred == nil || pred(*m) {
			out = append(out, *m)
		}
	}
	return out, rows.Err()
}
