package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

const (
	testNamespace = "capacity-manager-test"
	testClass     = "p6-b200.48xlarge"
	testTTL       = 10 * time.Minute
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func newTestLeaseStore(client *redis.Client) *LeaseStore {
	return NewLeaseStore(client, zap.NewNop(), testNamespace, testTTL)
}

func TestLeaseStore_TryAcquire_Grants(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	granted, err := store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	assert.True(t, granted, "first acquisition should be granted")

	// The record layout is part of the contract: other tooling reads it.
	raw, err := mr.Get(testNamespace + "/purchase-lock-" + testClass)
	require.NoError(t, err)

	var lease domain.Lease
	require.NoError(t, json.Unmarshal([]byte(raw), &lease))
	assert.Equal(t, testClass, lease.ResourceClass)
	assert.WithinDuration(t, time.Now().UTC(), lease.Timestamp, 5*time.Second)
}

func TestLeaseStore_TryAcquire_DeniedWhileHeld(t *testing.T) {
	_, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	granted, err := store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	assert.False(t, granted, "second acquisition should be denied while lease is held")
}

func TestLeaseStore_TryAcquire_PerClassLeases(t *testing.T) {
	_, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	granted, err := store.TryAcquire(ctx, "p6-b200.48xlarge")
	require.NoError(t, err)
	require.True(t, granted)

	granted, err = store.TryAcquire(ctx, "p5.48xlarge")
	require.NoError(t, err)
	assert.True(t, granted, "leases are keyed per resource class")
}

func TestLeaseStore_TryAcquire_ExpiryReclaim(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	granted, err := store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	require.True(t, granted)

	// Holder crashed; Redis expires the key after the TTL.
	mr.FastForward(testTTL + time.Minute)

	granted, err = store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	assert.True(t, granted, "expired lease must be reclaimable by any later caller")
}

func TestLeaseStore_TryAcquire_ReclaimsStaleRecordWithoutExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	// A record written without an expiry, e.g. by hand during an incident.
	stale := domain.Lease{
		Timestamp:     time.Now().UTC().Add(-testTTL - time.Minute),
		ResourceClass: testClass,
	}
	payload, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, mr.Set(testNamespace+"/purchase-lock-"+testClass, string(payload)))

	granted, err := store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	assert.True(t, granted, "stale lease past TTL should be self-healed and re-acquired")
}

func TestLeaseStore_TryAcquire_ConcurrentStaleReclaim(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	// Every caller below observes the same stale record. The reclaim deletes
	// compare-and-swap style, so the losers must not wipe out the fresh lease
	// the winner wrote.
	stale := domain.Lease{
		Timestamp:     time.Now().UTC().Add(-testTTL - time.Minute),
		ResourceClass: testClass,
	}
	payload, err := json.Marshal(stale)
	require.NoError(t, err)
	key := testNamespace + "/purchase-lock-" + testClass
	require.NoError(t, mr.Set(key, string(payload)))

	const invocations = 10
	var wg sync.WaitGroup
	results := make(chan bool, invocations)

	for i := 0; i < invocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := store.TryAcquire(ctx, testClass)
			assert.NoError(t, err)
			results <- granted
		}()
	}
	wg.Wait()
	close(results)

	grantedCount := 0
	for granted := range results {
		if granted {
			grantedCount++
		}
	}
	assert.Equal(t, 1, grantedCount, "a stale record may be reclaimed by exactly one caller")

	// The winner's lease survived the losing reclaims, fresh and expiring.
	raw, err := mr.Get(key)
	require.NoError(t, err)
	var held domain.Lease
	require.NoError(t, json.Unmarshal([]byte(raw), &held))
	assert.WithinDuration(t, time.Now().UTC(), held.Timestamp, 5*time.Second)
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestLeaseStore_TryAcquire_FailsClosedOnStoreError(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	mr.Close()

	granted, err := store.TryAcquire(ctx, testClass)
	assert.False(t, granted, "store errors must never report granted")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLeaseStore)
}

func TestLeaseStore_Release_Idempotent(t *testing.T) {
	_, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	// Releasing a lease that was never acquired is not an error.
	require.NoError(t, store.Release(ctx, testClass))

	granted, err := store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	require.True(t, granted)

	require.NoError(t, store.Release(ctx, testClass))
	require.NoError(t, store.Release(ctx, testClass))

	granted, err = store.TryAcquire(ctx, testClass)
	require.NoError(t, err)
	assert.True(t, granted, "lease should be acquirable again after release")
}

func TestLeaseStore_ConcurrentAcquisition(t *testing.T) {
	_, client := setupTestRedis(t)
	store := newTestLeaseStore(client)
	ctx := context.Background()

	const invocations = 10
	var wg sync.WaitGroup
	results := make(chan bool, invocations)

	for i := 0; i < invocations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, _ := store.TryAcquire(ctx, testClass)
			results <- granted
		}()
	}
	wg.Wait()
	close(results)

	grantedCount := 0
	for granted := range results {
		if granted {
			grantedCount++
		}
	}

	assert.Equal(t, 1, grantedCount, "exactly one concurrent invocation may hold the lease")
}
