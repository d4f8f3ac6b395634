// Package locker provides distributed locking for coordinating background
// work across multiple service replicas.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across replicas.
// Implementations must be safe for concurrent use.
//
// Typical usage:
//
//	acquired, err := locker.Acquire(ctx, "refresh-lock", ttl)
//	if err != nil || !acquired {
//	    return // another replica owns the work
//	}
//	defer locker.Release(ctx, "refresh-lock")
type DistributedLocker interface {
	// Acquire attempts to acquire a distributed lock with the given key.
	// Returns true if the lock was acquired, false if another replica holds
	// it. The lock expires automatically after ttl if not released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key. Safe to call when this
	// replica does not own the lock (no-op).
	Release(ctx context.Context, key string) error
}
