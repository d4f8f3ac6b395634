// Package redis provides Redis-backed implementations of the lease store,
// audit store and snapshot cache.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// LeaseStore implements domain.LeaseStore on a shared Redis instance.
//
// The purchase lease for a resource class lives at
// <namespace>/purchase-lock-<class> as a JSON record {timestamp, resource_class}.
// Acquisition is a single SET NX EX call: an atomic create-if-absent write, so
// two callers observing "absent" can never both be granted. Redis expires the
// key after the TTL, which is also how a crashed holder is reclaimed.
type LeaseStore struct {
	client    *redis.Client
	logger    *zap.Logger
	namespace string
	ttl       time.Duration
}

// reclaimScript deletes the lease only while it still holds the exact payload
// the reclaiming caller inspected. Without the guard, two callers racing on
// the same stale record could each Del and SetNX, the second Del removing the
// first caller's fresh lease.
var reclaimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewLeaseStore creates a lease store. ttl bounds how long a lease can be
// held before any later caller may reclaim it.
func NewLeaseStore(client *redis.Client, logger *zap.Logger, namespace string, ttl time.Duration) *LeaseStore {
	return &LeaseStore{
		client:    client,
		logger:    logger,
		namespace: namespace,
		ttl:       ttl,
	}
}

// TryAcquire attempts to take the purchase lease for resourceClass.
//
// Fail-closed semantics: any store error reports denied alongside the error;
// the caller must never assume it holds the lease when the lock state is
// unknown. A held record older than the TTL (possible only for records
// written without an expiry, e.g. by hand or an older revision) is deleted
// and the conditional write retried once.
func (s *LeaseStore) TryAcquire(ctx context.Context, resourceClass string) (bool, error) {
	granted, err := s.tryWrite(ctx, resourceClass)
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	// Denied. Inspect the holder: stale non-expiring records are reclaimed.
	key := s.key(resourceClass)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// Holder vanished between the write and the read; the caller can
		// simply retry later, so report denied rather than racing again.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: reading lease %s: %v", domain.ErrLeaseStore, key, err)
	}

	var held domain.Lease
	stale := json.Unmarshal(raw, &held) != nil || held.Expired(s.ttl, time.Now().UTC())
	if !stale {
		s.logger.Debug("purchase lease held by another invocation",
			zap.String("resource_class", resourceClass),
			zap.Time("held_since", held.Timestamp),
		)
		return false, nil
	}

	s.logger.Warn("reclaiming stale purchase lease",
		zap.String("resource_class", resourceClass),
		zap.Time("held_since", held.Timestamp),
		zap.Duration("ttl", s.ttl),
	)
	deleted, err := reclaimScript.Run(ctx, s.client, []string{key}, string(raw)).Int()
	if err != nil {
		return false, fmt.Errorf("%w: reclaiming lease %s: %v", domain.ErrLeaseStore, key, err)
	}
	if deleted == 0 {
		// A competing reclaim got there first and now holds a fresh lease.
		return false, nil
	}

	return s.tryWrite(ctx, resourceClass)
}

// tryWrite performs the atomic create-if-absent write.
func (s *LeaseStore) tryWrite(ctx context.Context, resourceClass string) (bool, error) {
	lease := domain.Lease{
		Timestamp:     time.Now().UTC(),
		ResourceClass: resourceClass,
	}
	payload, err := json.Marshal(lease)
	if err != nil {
		return false, fmt.Errorf("%w: encoding lease: %v", domain.ErrLeaseStore, err)
	}

	key := s.key(resourceClass)
	granted, err := s.client.SetNX(ctx, key, payload, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: writing lease %s: %v", domain.ErrLeaseStore, key, err)
	}

	if granted {
		s.logger.Debug("purchase lease acquired",
			zap.String("resource_class", resourceClass),
			zap.Duration("ttl", s.ttl),
		)
	}

	return granted, nil
}

// Release deletes the lease unconditionally. Deleting an absent key is not an
// error, so release is idempotent.
func (s *LeaseStore) Release(ctx context.Context, resourceClass string) error {
	key := s.key(resourceClass)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: releasing lease %s: %v", domain.ErrLeaseStore, key, err)
	}

	s.logger.Debug("purchase lease released",
		zap.String("resource_class", resourceClass),
	)

	return nil
}

func (s *LeaseStore) key(resourceClass string) string {
	return s.namespace + "/purchase-lock-" + resourceClass
}
