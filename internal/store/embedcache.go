package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rcliao/agent-memory/internal/memerr"
)

// CacheGetEmbedding implements the persistent (tier-2) cache layer of
// spec.md §4.3's three-tier Embedder cache.
func (s *SQLiteStore) CacheGetEmbedding(ctx context.Context, key string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT embedding FROM embed_cache WHERE cache_key = ?`, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, memerr.Wrap(memerr.KindStoreIO, "embed cache lookup", true, err)
	}
	return deserializeFloat32(blob), true, nil
}

// CachePutEmbedding writes through to the persistent cache table.
func (s *SQLiteStore) CachePutEmbedding(ctx context.Context, key string, vec []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embed_cache (cache_key, embedding, created_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET embedding = excluded.embedding, created_at = excluded.created_at
	`, key, serializeFloat32(vec), time.Now().Unix())
	if err != nil {
		return memerr.Wrap(memerr.KindStoreIO, "embed cache write", true, err)
	}
	return nil
}
