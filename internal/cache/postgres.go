package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// PostgresBackend persists the cache namespace in a dashboard_cache
// table so a restarted server resumes with a warm cache. The quota here
// models the medium's own budget, distinct from the store's accounting;
// exceeding it surfaces as ErrQuotaExceeded.
type PostgresBackend struct {
	db    *sql.DB
	quota int64
}

// NewPostgresBackend opens a backend over the given connection string
// and creates the cache table if missing. quotaBytes of 0 disables the
// medium-level quota.
func NewPostgresBackend(connStr string, quotaBytes int64) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	b := &PostgresBackend{db: db, quota: quotaBytes}
	if err := b.ensureTable(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *PostgresBackend) ensureTable(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS dashboard_cache (
            key TEXT PRIMARY KEY,
            payload JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            ttl_ms BIGINT NOT NULL,
            size_bytes BIGINT NOT NULL
        )`)
	return err
}

func (b *PostgresBackend) Load() ([]Entry, error) {
	rows, err := b.db.QueryContext(context.Background(),
		`SELECT key, payload, created_at, ttl_ms, size_bytes FROM dashboard_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			payload pqtype.NullRawMessage
			ttlMs   int64
		)
		if err := rows.Scan(&e.Key, &payload, &e.CreatedAt, &ttlMs, &e.SizeBytes); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = payload.RawMessage
		}
		e.TTL = time.Duration(ttlMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

func (b *PostgresBackend) Put(storageKey string, e Entry) error {
	ctx := context.Background()
	if b.quota > 0 {
		var used int64
		err := b.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(size_bytes), 0) FROM dashboard_cache WHERE key <> $1`,
			storageKey).Scan(&used)
		if err != nil {
			return err
		}
		if used+e.SizeBytes > b.quota {
			return fmt.Errorf("dashboard_cache at %d bytes: %w", used, ErrQuotaExceeded)
		}
	}
	payload := pqtype.NullRawMessage{RawMessage: e.Payload, Valid: e.Payload != nil}
	_, err := b.db.ExecContext(ctx, `
        INSERT INTO dashboard_cache (key, payload, created_at, ttl_ms, size_bytes)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (key) DO UPDATE SET
          payload = EXCLUDED.payload,
          created_at = EXCLUDED.created_at,
          ttl_ms = EXCLUDED.ttl_ms,
          size_bytes = EXCLUDED.size_bytes`,
		storageKey, payload, e.CreatedAt, e.TTL.Milliseconds(), e.SizeBytes)
	return err
}

func (b *PostgresBackend) Delete(storageKeys ...string) error {
	if len(storageKeys) == 0 {
		return nil
	}
	_, err := b.db.ExecContext(context.Background(),
		`DELETE FROM dashboard_cache WHERE key = ANY($1)`, pq.Array(storageKeys))
	return err
}

func (b *PostgresBackend) Close() error { return b.db.Close() }
