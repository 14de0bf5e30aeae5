package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLock stores the lease as a sentinel row in a run_locks table. An
// expired row is overwritten in the same statement that claims it, so
// reclaim and acquire are one atomic upsert.
type PostgresLock struct {
	pool  *pgxpool.Pool
	owner string
	ttl   time.Duration
}

// NewPostgresLock connects a pool and ensures the run_locks table exists.
func NewPostgresLock(ctx context.Context, url, owner string, ttl time.Duration) (*PostgresLock, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS run_locks (
			season      integer PRIMARY KEY,
			owner_id    text NOT NULL,
			acquired_at timestamptz NOT NULL,
			expires_at  timestamptz NOT NULL
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure run_locks table: %w", err)
	}

	return &PostgresLock{pool: pool, owner: owner, ttl: ttl}, nil
}

// Acquire claims the season's sentinel row. The ON CONFLICT update only
// fires when the existing lease has expired, so a live lease blocks with
// ErrHeld and a stale one is reclaimed atomically.
func (l *PostgresLock) Acquire(ctx context.Context, season int) error {
	tag, err := l.pool.Exec(ctx, `
		INSERT INTO run_locks (season, owner_id, acquired_at, expires_at)
		VALUES ($1, $2, now(), now() + make_interval(secs => $3))
		ON CONFLICT (season) DO UPDATE
			SET owner_id = EXCLUDED.owner_id,
			    acquired_at = EXCLUDED.acquired_at,
			    expires_at = EXCLUDED.expires_at
			WHERE run_locks.expires_at < now()
	`, season, l.owner, l.ttl.Seconds())
	if err != nil {
		return fmt.Errorf("acquire lease row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("season %d lease row is live: %w", season, ErrHeld)
	}
	return nil
}

// Release deletes the sentinel row if this process still owns it.
func (l *PostgresLock) Release(ctx context.Context, season int) error {
	_, err := l.pool.Exec(ctx, `
		DELETE FROM run_locks WHERE season = $1 AND owner_id = $2
	`, season, l.owner)
	if err != nil {
		return fmt.Errorf("release lease row: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (l *PostgresLock) Close() {
	l.pool.Close()
}
