package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	cache_key  TEXT PRIMARY KEY,
	embedding  vector NOT NULL,
	dim        INTEGER NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

// PGStore is the postgres/pgvector-backed durable tier. Rows carry an
// expires_at column that every read filters on, so expiry is enforced by the
// store even before the purge job deletes the row.
type PGStore struct {
	db *sqlx.DB
}

func NewPGStore(dsn string) (*PGStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure embedding_cache table: %w", err)
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	where := map[string]interface{}{
		"cache_key":    key,
		"expires_at >": time.Now(),
	}
	sqlStr, args, err := builder.BuildSelect("embedding_cache", where, []string{"embedding"})
	if err != nil {
		return nil, false, fmt.Errorf("%w: build select: %v", appErr.ErrCache, err)
	}
	var vec pgvector.Vector
	err = s.db.QueryRowxContext(ctx, s.db.Rebind(sqlStr), args...).Scan(&vec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: postgres get: %v", appErr.ErrCache, err)
	}
	return EncodeVector(vec.Slice()), true, nil
}

func (s *PGStore) SetWithExpiry(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	values, err := DecodeVector(data)
	if err != nil {
		return err
	}
	row := map[string]interface{}{
		"cache_key":  key,
		"embedding":  pgvector.NewVector(values),
		"dim":        len(values),
		"expires_at": time.Now().Add(ttl),
	}
	sqlStr, args, err := builder.BuildInsert("embedding_cache", []map[string]interface{}{row})
	if err != nil {
		return fmt.Errorf("%w: build insert: %v", appErr.ErrCache, err)
	}
	sqlStr = strings.TrimSpace(sqlStr) +
		" ON CONFLICT (cache_key) DO UPDATE SET embedding = EXCLUDED.embedding, dim = EXCLUDED.dim, expires_at = EXCLUDED.expires_at"
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(sqlStr), args...); err != nil {
		return fmt.Errorf("%w: postgres set: %v", appErr.ErrCache, err)
	}
	return nil
}

// PurgeExpired deletes rows past their expiry. Reads already filter these
// out; this just reclaims space.
func (s *PGStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM embedding_cache WHERE expires_at <= ?"), time.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: postgres purge: %v", appErr.ErrCache, err)
	}
	return res.RowsAffected()
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PGStore) Close() error {
	return s.db.Close()
}
