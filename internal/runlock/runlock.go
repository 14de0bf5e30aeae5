// Package runlock serializes runs for the same season. A run holds an
// explicit lease (owner id, acquire time, TTL); an overlapping run observes
// the lease and aborts, and a lease past its TTL counts as abandoned and is
// reclaimable rather than deadlocking future runs.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"imperialmap/internal/config"
)

// ErrHeld means another unexpired run owns the lease. Expected and
// recoverable: the caller aborts without side effects.
var ErrHeld = errors.New("run lock held by another run")

// Lock acquires and releases the per-season run lease.
type Lock interface {
	// Acquire takes the lease or fails with ErrHeld.
	Acquire(ctx context.Context, season int) error
	// Release frees the lease if this process still owns it. Safe to call
	// after a failed run; releasing an expired or stolen lease is a no-op.
	Release(ctx context.Context, season int) error
}

// Lease is the record a backend stores while a run is in flight.
type Lease struct {
	OwnerID    string    `json:"ownerId"`
	AcquiredAt time.Time `json:"acquiredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the lease is reclaimable at t.
func (l Lease) Expired(t time.Time) bool {
	return t.After(l.ExpiresAt)
}

// New builds the lock backend selected by config. Every backend gets a fresh
// owner id for this process.
func New(ctx context.Context, cfg *config.Config) (Lock, error) {
	owner := uuid.NewString()
	switch cfg.LockBackend {
	case "file":
		return NewFileLock(cfg.DataDir, owner, cfg.LockTTL()), nil
	case "redis":
		return NewRedisLock(cfg.RedisURL, owner, cfg.LockTTL())
	case "postgres":
		return NewPostgresLock(ctx, cfg.PostgresURL, owner, cfg.LockTTL())
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}
