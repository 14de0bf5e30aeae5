package runlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"imperialmap/internal/logging"
)

// FileLock keeps the lease in locks/run-{season}.json under the data dir.
// This is the default backend: the operative store is flat files, so the
// lock lives next to the artifacts it guards.
type FileLock struct {
	dir   string
	owner string
	ttl   time.Duration
	now   func() time.Time
}

// NewFileLock creates a file-based lock rooted at the data dir.
func NewFileLock(dataDir, owner string, ttl time.Duration) *FileLock {
	return &FileLock{
		dir:   filepath.Join(dataDir, "locks"),
		owner: owner,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (l *FileLock) path(season int) string {
	return filepath.Join(l.dir, fmt.Sprintf("run-%d.json", season))
}

// Acquire creates the lease file exclusively. An existing unexpired lease
// fails with ErrHeld; an expired one is reclaimed.
func (l *FileLock) Acquire(_ context.Context, season int) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := l.tryCreate(season); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrExist) {
			return err
		}

		lease, err := l.readLease(season)
		if err != nil {
			// Unreadable lease file: treat as abandoned.
			logging.Logger().Warnf("run lock for season %d is unreadable, reclaiming: %v", season, err)
		} else if !lease.Expired(l.now()) {
			return fmt.Errorf("season %d lease owned by %s until %s: %w",
				season, lease.OwnerID, lease.ExpiresAt.Format(time.RFC3339), ErrHeld)
		} else {
			logging.Logger().Warnf("reclaiming expired run lock for season %d (owner %s)", season, lease.OwnerID)
		}

		if err := os.Remove(l.path(season)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reclaim lease: %w", err)
		}
	}
	return fmt.Errorf("season %d: %w", season, ErrHeld)
}

func (l *FileLock) tryCreate(season int) error {
	f, err := os.OpenFile(l.path(season), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	now := l.now()
	lease := Lease{OwnerID: l.owner, AcquiredAt: now, ExpiresAt: now.Add(l.ttl)}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&lease); err != nil {
		os.Remove(l.path(season))
		return fmt.Errorf("write lease: %w", err)
	}
	return nil
}

func (l *FileLock) readLease(season int) (Lease, error) {
	raw, err := os.ReadFile(l.path(season))
	if err != nil {
		return Lease{}, err
	}
	var lease Lease
	if err := json.Unmarshal(raw, &lease); err != nil {
		return Lease{}, err
	}
	return lease, nil
}

// Release removes the lease file if this process still owns it.
func (l *FileLock) Release(_ context.Context, season int) error {
	lease, err := l.readLease(season)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lease: %w", err)
	}
	if lease.OwnerID != l.owner {
		return nil
	}
	if err := os.Remove(l.path(season)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lease: %w", err)
	}
	return nil
}
