package store

import (
	"context"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// RewriteRelations implements the Relation foreign-key-style rewrite spec.md
// §3 requires on merge: every kg_relation row referencing loserID is
// rewritten to winnerID. The core never interprets relation content; it
// only preserves referential integrity for the external KG layer.
func (s *SQLiteStore) RewriteRelations(ctx context.Context, loserID, winnerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "begin rewrite relations tx", true, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE kg_relation SET subject_id = ? WHERE subject_id = ?`, winnerID, loserID); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "rewrite subject refs", false, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE kg_relation SET object_id = ? WHERE object_id = ?`, winnerID, loserID); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "rewrite object refs", false, err)
	}
	// Drop any now-duplicate or self-referential rows the rewrite produced.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM kg_relation WHERE subject_id = object_id`); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "prune self relations", false, err)
	}
	// Rows the OR IGNORE updates skipped already exist for winnerID; drop
	// the loser's copies.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM kg_relation WHERE subject_id = ? OR object_id = ?`, loserID, loserID); err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "prune duplicate relations", false, err)
	}
	return tx.Commit()
}

// DeleteRelationsFor removes every relation referencing id, used on hard
// purge per spec.md §3.
func (s *SQLiteStore) DeleteRelationsFor(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kg_relation WHERE subject_id = ? OR object_id = ?`, id, id)
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "delete relations for id", false, err)
	}
	return nil
}
