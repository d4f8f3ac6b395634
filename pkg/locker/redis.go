package locker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker implements DistributedLocker using Redsync, which implements
// the Redlock algorithm for distributed mutual exclusion.
type RedisLocker struct {
	rs      *redsync.Redsync
	logger  *zap.Logger
	mutexes map[string]*redsync.Mutex
	mu      sync.Mutex
}

// NewRedisLocker creates a Redis-backed distributed locker.
//
// Locks acquired here expire automatically, so a crashed holder never
// deadlocks the rest of the fleet.
func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	pool := goredis.NewPool(client)

	return &RedisLocker{
		rs:      redsync.New(pool),
		logger:  logger,
		mutexes: make(map[string]*redsync.Mutex),
	}
}

// Acquire attempts to take the lock without blocking. A held lock reports
// (false, nil); only real store failures surface as errors.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	mutex := r.rs.NewMutex(
		key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1), // non-blocking: report contention immediately
	)

	if err := mutex.LockContext(ctx); err != nil {
		// Redsync reports contention either as ErrFailed or as a wrapped
		// "lock already taken" error depending on the node count.
		if errors.Is(err, redsync.ErrFailed) || strings.Contains(err.Error(), "lock already taken") {
			r.logger.Debug("lock held by another replica", zap.String("key", key))
			return false, nil
		}
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	r.mu.Lock()
	r.mutexes[key] = mutex
	r.mu.Unlock()

	r.logger.Debug("lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return true, nil
}

// Release releases the lock if and only if this replica owns it. Redsync
// verifies the holder token internally, so releasing a lock owned elsewhere
// is a no-op rather than an error.
func (r *RedisLocker) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	mutex, owned := r.mutexes[key]
	if owned {
		delete(r.mutexes, key)
	}
	r.mu.Unlock()

	if !owned {
		return nil
	}

	released, err := mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if !released {
		r.logger.Debug("lock already expired or owned elsewhere", zap.String("key", key))
	}

	return nil
}
