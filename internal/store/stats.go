package store

import (
	"context"
	"os"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// Stats returns database statistics the way the teacher's SQLiteStore.Stats
// does, generalized to the fields MetricsHub and /v1/stats need.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Namespaces: map[string]int{}}

	if info, err := os.Stat(s.dbPath()); err == nil {
		st.DBSizeBytes = info.Size()
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory WHERE agent = ?`, s.agent)
	if err := row.Scan(&st.TotalMemories); err != nil {
		return st, memerr.Wrap(memerr.KindStoreIO, "count total memories", false, err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory WHERE agent = ? AND soft_deleted_at IS NULL`, s.agent)
	if err := row.Scan(&st.ActiveMemories); err != nil {
		return st, memerr.Wrap(memerr.KindStoreIO, "count active memories", false, err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM memory
		WHERE agent = ? AND soft_deleted_at IS NULL AND embedding_status != 'present'`, s.agent)
	if err := row.Scan(&st.VectorlessCount); err != nil {
		return st, memerr.Wrap(memerr.KindStoreIO, "count vectorless memories", false, err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory WHERE agent = ? AND pinned = 1`, s.agent)
	if err := row.Scan(&st.PinnedCount); err != nil {
		return st, memerr.Wrap(memerr.KindStoreIO, "count pinned memories", false, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, COUNT(*) FROM memory
		WHERE agent = ? AND soft_deleted_at IS NULL
		GROUP BY namespace`, s.agent)
	if err != nil {
		return st, memerr.Wrap(memerr.KindStoreIO, "namespace stats", false, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns string
		var count int
		if err := rows.Scan(&ns, &count); err != nil {
			return st, memerr.Wrap(memerr.KindStoreIO, "scan namespace stats", false, err)
		}
		st.Namespaces[ns] = count
	}

	return st, rows.Err()
}

func (s *SQLiteStore) dbPath() string { return s.path }
