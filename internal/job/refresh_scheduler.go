// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"capacity-manager/internal/app/service"
	"capacity-manager/pkg/locker"
)

// SnapshotRefresher is the slice of the capacity service the scheduler needs.
type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context, resourceClass string) (*service.Snapshot, error)
}

// RefreshScheduler periodically refreshes the reservation status snapshot for
// the configured resource classes, with distributed locking so only one fleet
// instance queries the provider per interval.
type RefreshScheduler struct {
	capacity  SnapshotRefresher
	classes   []string
	interval  time.Duration
	timeout   time.Duration
	onStartup bool
	logger    *zap.Logger
	locker    locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RefreshConfig holds refresh scheduler configuration.
type RefreshConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewRefreshScheduler creates a snapshot refresher for the given resource
// classes.
func NewRefreshScheduler(
	capacity SnapshotRefresher,
	classes []string,
	cfg RefreshConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *RefreshScheduler {
	return &RefreshScheduler{
		capacity:  capacity,
		classes:   classes,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		onStartup: cfg.OnStartup,
		logger:    logger,
		locker:    locker,
	}
}

// Start begins the background refresh job.
func (s *RefreshScheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting snapshot refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Strings("resource_classes", s.classes),
		zap.Bool("run_on_startup", s.onStartup),
	)

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the scheduler.
func (s *RefreshScheduler) Stop() {
	s.logger.Info("stopping snapshot refresh scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("snapshot refresh scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *RefreshScheduler) run() {
	defer s.wg.Done()

	if s.onStartup {
		s.executeRefresh()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeRefresh()
		}
	}
}

// executeRefresh refreshes all snapshots under the distributed lock.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: lock held for the full interval to prevent duplicate refreshes
//   - Failure: lock released immediately to allow retry by another instance
func (s *RefreshScheduler) executeRefresh() {
	const lockKey = "snapshot:refresh:lock"

	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is refreshing snapshots, skipping execution")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	refreshed := 0
	failed := 0
	for _, class := range s.classes {
		if _, err := s.capacity.RefreshSnapshot(ctx, class); err != nil {
			failed++
			s.logger.Warn("snapshot refresh failed",
				zap.String("resource_class", class),
				zap.Error(err),
			)

			continue
		}
		refreshed++
	}

	if failed > 0 {
		// Release immediately so another instance can retry before the
		// cooldown elapses.
		if err := s.locker.Release(s.ctx, lockKey); err != nil {
			s.logger.Error("failed to release lock after refresh error", zap.Error(err))
		}
		s.logger.Info("snapshot refresh completed with errors, lock released for retry",
			zap.Int("refreshed", refreshed),
			zap.Int("failed", failed),
		)

		return
	}

	s.logger.Info("snapshot refresh completed, lock held for cooldown",
		zap.Int("refreshed", refreshed),
		zap.Duration("cooldown", s.interval),
	)
}
