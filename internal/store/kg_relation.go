package store

import (
	"context"

	"github.com/rcliao/agent-memory/internal/memerr"
	"github.com/rcliao/agent-memory/internal/model"
)

// PutRelation idempotently records an external knowledge-graph edge,
// generalizing the teacher's Link insert (internal/store/link.go) from a
// fixed relation vocabulary to the opaque subject/predicate/object triple
// spec.md §3 describes; the core never interprets Predicate.
func (s *SQLiteStore) PutRelation(ctx context.Context, rel model.Relation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO kg_relation (subject_id, predicate, object_id) VALUES (?, ?, ?)`,
		rel.SubjectID, rel.Predicate, rel.ObjectID)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "put relation", false, err)
	}
	return nil
}

// ListRelations returns every relation where memoryID is the subject or
// the object, the way the teacher's GetLinks does for memory_links.
func (s *SQLiteStore) ListRelations(ctx context.Context, memoryID string) ([]model.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id, predicate, object_id FROM kg_relation WHERE subject_id = ? OR object_id = ?`,
		memoryID, memoryID)
	if err != nil {
		return nil, memerr.Wrap(memerr.KindStoreIO, "list relations", false, err)
	}
	defer rows.Close()

	var out []model.Relation
	for rows.Next() {
		var r model.Relation
		if err := rows.Scan(&r.SubjectID, &r.Predicate, &r.ObjectID); err != nil {
			return nil, memerr.Wrap(memerr.KindStoreIO, "scan relation", false, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
