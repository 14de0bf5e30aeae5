package runlock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestFileLockAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	lock := NewFileLock(dir, "owner-1", 15*time.Minute)
	ctx := context.Background()

	if err := lock.Acquire(ctx, 2025); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(lock.path(2025)); err != nil {
		t.Fatalf("lease file missing: %v", err)
	}

	lease, err := lock.readLease(2025)
	if err != nil {
		t.Fatalf("read lease: %v", err)
	}
	if lease.OwnerID != "owner-1" {
		t.Fatalf("lease owner = %q", lease.OwnerID)
	}
	if !lease.ExpiresAt.After(lease.AcquiredAt) {
		t.Fatalf("lease does not expire after acquisition: %+v", lease)
	}

	if err := lock.Release(ctx, 2025); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(lock.path(2025)); !os.IsNotExist(err) {
		t.Fatalf("lease file survived release: %v", err)
	}

	// Releasing again is a no-op.
	if err := lock.Release(ctx, 2025); err != nil {
		t.Fatalf("idempotent release: %v", err)
	}
}

func TestFileLockContention(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewFileLock(dir, "owner-1", 15*time.Minute)
	second := NewFileLock(dir, "owner-2", 15*time.Minute)

	if err := first.Acquire(ctx, 2025); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := second.Acquire(ctx, 2025); !errors.Is(err, ErrHeld) {
		t.Fatalf("want ErrHeld, got %v", err)
	}

	// A different season is an independent lease.
	if err := second.Acquire(ctx, 2024); err != nil {
		t.Fatalf("different season acquire: %v", err)
	}

	// A foreign release must not steal the lease.
	if err := second.Release(ctx, 2025); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if err := second.Acquire(ctx, 2025); !errors.Is(err, ErrHeld) {
		t.Fatalf("foreign release stole the lease: %v", err)
	}
}

func TestFileLockReclaimsExpiredLease(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	stale := NewFileLock(dir, "crashed-run", time.Minute)
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }
	if err := stale.Acquire(ctx, 2025); err != nil {
		t.Fatalf("seed stale lease: %v", err)
	}

	fresh := NewFileLock(dir, "owner-2", 15*time.Minute)
	if err := fresh.Acquire(ctx, 2025); err != nil {
		t.Fatalf("reclaim expired lease: %v", err)
	}
	lease, err := fresh.readLease(2025)
	if err != nil {
		t.Fatalf("read lease: %v", err)
	}
	if lease.OwnerID != "owner-2" {
		t.Fatalf("lease not reclaimed, owner = %q", lease.OwnerID)
	}
}

func TestFileLockReclaimsCorruptLease(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	lock := NewFileLock(dir, "owner-1", 15*time.Minute)
	if err := os.MkdirAll(dir+"/locks", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lock.path(2025), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := lock.Acquire(ctx, 2025); err != nil {
		t.Fatalf("reclaim corrupt lease: %v", err)
	}
}

func TestLeaseExpired(t *testing.T) {
	at := time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)
	lease := Lease{OwnerID: "o", AcquiredAt: at, ExpiresAt: at.Add(15 * time.Minute)}

	if lease.Expired(at.Add(14 * time.Minute)) {
		t.Fatal("lease expired before its TTL")
	}
	if !lease.Expired(at.Add(16 * time.Minute)) {
		t.Fatal("lease still live after its TTL")
	}
}
