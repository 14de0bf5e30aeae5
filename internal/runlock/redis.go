package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imperialmap/internal/logging"
)

const redisLockKeyPrefix = "imperialmap:runlock:"

// RedisLock stores the lease as a Redis key with NX+PX semantics, for
// deployments where scheduled and manual runs can start on different hosts.
type RedisLock struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewRedisLock connects a Redis-backed lock from a redis:// URL.
func NewRedisLock(url, owner string, ttl time.Duration) (*RedisLock, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisLock{client: redis.NewClient(opts), owner: owner, ttl: ttl}, nil
}

func redisLockKey(season int) string {
	return fmt.Sprintf("%s%d", redisLockKeyPrefix, season)
}

// Acquire does SET key owner NX PX ttl. Redis expires the key on its own, so
// an abandoned lease clears without any reclaim step here.
func (l *RedisLock) Acquire(ctx context.Context, season int) error {
	ok, err := l.client.SetNX(ctx, redisLockKey(season), l.owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		holder, err := l.client.Get(ctx, redisLockKey(season)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get holder: %w", err)
		}
		return fmt.Errorf("season %d lease owned by %s: %w", season, holder, ErrHeld)
	}
	return nil
}

// Release deletes the key only if this process still owns it. The lease may
// have expired and been taken by another run between the check and the
// delete; that window is acceptable for a lock whose job is stopping
// overlapping cron and manual runs, not fencing arbitrary writers.
func (l *RedisLock) Release(ctx context.Context, season int) error {
	holder, err := l.client.Get(ctx, redisLockKey(season)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	if holder != l.owner {
		logging.Logger().Warnf("season %d lease no longer ours, not releasing", season)
		return nil
	}
	if err := l.client.Del(ctx, redisLockKey(season)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (l *RedisLock) Close() error {
	return l.client.Close()
}
