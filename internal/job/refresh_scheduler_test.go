package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
)

type refresherFunc func(ctx context.Context, resourceClass string) (*service.Snapshot, error)

func (f refresherFunc) RefreshSnapshot(ctx context.Context, resourceClass string) (*service.Snapshot, error) {
	return f(ctx, resourceClass)
}

// lockerFake always grants and records releases.
type lockerFake struct {
	mu       sync.Mutex
	releases int
}

func (l *lockerFake) Acquire(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (l *lockerFake) Release(context.Context, string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	return nil
}

func (l *lockerFake) released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.releases
}

func newTestScheduler(refresher SnapshotRefresher, cfg RefreshConfig, lk *lockerFake) *RefreshScheduler {
	return NewRefreshScheduler(
		refresher,
		[]string{"p6-b200.48xlarge"},
		cfg,
		zap.NewNop(),
		lk,
	)
}

func TestStart_RefreshesOnStartupFromConfig(t *testing.T) {
	refreshed := make(chan string, 1)

	s := newTestScheduler(refresherFunc(func(_ context.Context, class string) (*service.Snapshot, error) {
		select {
		case refreshed <- class:
		default:
		}
		return &service.Snapshot{ResourceClass: class}, nil
	}), RefreshConfig{Interval: time.Hour, Timeout: time.Second, OnStartup: true}, &lockerFake{})

	s.Start()
	defer s.Stop()

	select {
	case class := <-refreshed:
		assert.Equal(t, "p6-b200.48xlarge", class)
	case <-time.After(2 * time.Second):
		t.Fatal("startup refresh never ran")
	}
}

func TestStart_NoStartupRefreshWhenDisabled(t *testing.T) {
	refreshed := make(chan struct{}, 1)

	s := newTestScheduler(refresherFunc(func(_ context.Context, class string) (*service.Snapshot, error) {
		select {
		case refreshed <- struct{}{}:
		default:
		}
		return &service.Snapshot{ResourceClass: class}, nil
	}), RefreshConfig{Interval: time.Hour, Timeout: time.Second, OnStartup: false}, &lockerFake{})

	s.Start()
	defer s.Stop()

	select {
	case <-refreshed:
		t.Fatal("refresh ran before the first interval despite on_startup=false")
	case <-time.After(100 * time.Millisecond):
	}
}

// A failed refresh releases the lock immediately so another replica can retry
// before the cooldown elapses.
func TestExecuteRefresh_ReleasesLockOnFailure(t *testing.T) {
	lk := &lockerFake{}

	s := newTestScheduler(refresherFunc(func(context.Context, string) (*service.Snapshot, error) {
		return nil, errors.New("provider unavailable")
	}), RefreshConfig{Interval: time.Hour, Timeout: time.Second, OnStartup: false}, lk)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	defer s.cancel()

	s.executeRefresh()

	require.Equal(t, 1, lk.released())
}
