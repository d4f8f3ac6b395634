// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// Options holds the workflow settings for CapacityService.
type Options struct {
	// DefaultResourceClass is used when a request names neither a class nor
	// a recognized label.
	DefaultResourceClass string
	// DefaultDurationHours is requested when the caller supplies none.
	DefaultDurationHours int32
	// Zone pins offering selection to one availability zone. Empty means
	// autodiscover, falling back to all zones.
	Zone string
	// Labels maps CI job labels to resource classes.
	Labels domain.LabelMapping
	// OptimisticDiscovery proceeds as if no reservation exists when the
	// reservation query fails. Off by default: buying on an unknown fleet
	// state risks a duplicate block.
	OptimisticDiscovery bool
	// SnapshotTTL bounds how long a cached status snapshot is served.
	SnapshotTTL time.Duration
}

// CapacityService is the ensure-or-acquire orchestrator. One instance serves
// every resource class; per-class state lives entirely in the lease store.
type CapacityService struct {
	directory domain.ReservationDirectory
	catalog   domain.OfferingCatalog
	purchaser domain.CapacityPurchaser
	leases    domain.LeaseStore
	audit     domain.AuditStore
	history   domain.AcquisitionHistory
	zones     domain.ZoneLookup
	notifier  domain.Notifier
	cache     domain.Cache
	opts      Options
	logger    *zap.Logger
}

// NewCapacityService creates the orchestrator.
func NewCapacityService(
	directory domain.ReservationDirectory,
	catalog domain.OfferingCatalog,
	purchaser domain.CapacityPurchaser,
	leases domain.LeaseStore,
	audit domain.AuditStore,
	history domain.AcquisitionHistory,
	zones domain.ZoneLookup,
	notifier domain.Notifier,
	cache domain.Cache,
	opts Options,
	logger *zap.Logger,
) *CapacityService {
	if opts.Labels == nil {
		opts.Labels = domain.DefaultLabelMapping()
	}

	return &CapacityService{
		directory: directory,
		catalog:   catalog,
		purchaser: purchaser,
		leases:    leases,
		audit:     audit,
		history:   history,
		zones:     zones,
		notifier:  notifier,
		cache:     cache,
		opts:      opts,
		logger:    logger,
	}
}

// ResolveClass picks the resource class for a request: explicit class wins,
// then the first recognized label, then the configured default.
func (s *CapacityService) ResolveClass(explicit string, labels []string) string {
	if explicit != "" {
		return explicit
	}
	if class := s.opts.Labels.Resolve(labels); class != "" {
		return class
	}

	return s.opts.DefaultResourceClass
}

// ResolveDuration applies the configured default when the caller supplies no
// duration.
func (s *CapacityService) ResolveDuration(durationHours int32) int32 {
	if durationHours <= 0 {
		return s.opts.DefaultDurationHours
	}

	return durationHours
}

// Check is the read-only reservation query. It never touches the lease and
// never submits an acquisition.
func (s *CapacityService) Check(ctx context.Context, resourceClass, zone string) ([]domain.CapacityBlock, error) {
	blocks, err := s.directory.Find(ctx, resourceClass, zone)
	if err != nil {
		s.logger.Error("reservation check failed",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)

		return nil, err
	}

	return blocks, nil
}

// Ensure is the idempotent ensure-or-acquire workflow: do nothing when a
// reservation is already active, wait when one is pending, otherwise acquire
// under the per-class purchase lease. At most one concurrent invocation per
// resource class ever submits a purchase.
func (s *CapacityService) Ensure(ctx context.Context, resourceClass string, durationHours int32, zone string) domain.EnsureOutcome {
	durationHours = s.ResolveDuration(durationHours)

	// Duplicate-purchase prevention queries across all zones: a reservation
	// in a different zone still counts as "one exists".
	blocks, err := s.directory.Find(ctx, resourceClass, "")
	if err != nil {
		if !s.opts.OptimisticDiscovery {
			s.logger.Error("aborting ensure on discovery failure",
				zap.String("resource_class", resourceClass),
				zap.Error(err),
			)

			return domain.EnsureOutcome{Result: domain.ResultFailed, Err: err}
		}

		s.logger.Warn("discovery failed, proceeding optimistically",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)
		blocks = nil
	}

	if active := domain.FirstActive(blocks); active != nil {
		s.logger.Info("capacity block already active",
			zap.String("resource_class", resourceClass),
			zap.String("reservation_id", active.ReservationID),
			zap.String("zone", active.Zone),
		)

		return domain.EnsureOutcome{
			Result:        domain.ResultExists,
			Block:         active,
			ReservationID: active.ReservationID,
		}
	}

	if upcoming := domain.FirstUpcoming(blocks); upcoming != nil {
		s.logger.Info("capacity block already on its way",
			zap.String("resource_class", resourceClass),
			zap.String("reservation_id", upcoming.ReservationID),
			zap.String("state", string(upcoming.State)),
		)

		return domain.EnsureOutcome{
			Result:        domain.ResultPending,
			Block:         upcoming,
			ReservationID: upcoming.ReservationID,
		}
	}

	granted, err := s.leases.TryAcquire(ctx, resourceClass)
	if err != nil {
		// Fail closed: unknown lock state means another invocation may be
		// mid-purchase.
		s.logger.Error("lease acquisition failed, treating as denied",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)

		return domain.EnsureOutcome{Result: domain.ResultLocked, Err: err}
	}
	if !granted {
		s.logger.Info("purchase lease held by another invocation",
			zap.String("resource_class", resourceClass),
		)

		return domain.EnsureOutcome{Result: domain.ResultLocked}
	}

	// Guaranteed release on every exit from the acquiring branch. The
	// detached context keeps cleanup working when the request context is
	// already canceled.
	defer func() {
		releaseCtx, cancel := detached(ctx)
		defer cancel()

		if err := s.leases.Release(releaseCtx, resourceClass); err != nil {
			s.logger.Error("lease release failed, TTL will reclaim",
				zap.String("resource_class", resourceClass),
				zap.Error(err),
			)
		}
	}()

	outcome := s.acquire(ctx, resourceClass, durationHours, zone)

	if outcome.Result == domain.ResultPurchased || outcome.Result == domain.ResultFailed {
		// Detached like the lease release: a caller gone by now must not
		// swallow the event.
		notifyCtx, cancel := detached(ctx)
		defer cancel()

		s.notifier.AcquisitionCompleted(notifyCtx, domain.AcquisitionEvent{
			Result:        outcome.Result,
			ResourceClass: resourceClass,
			Zone:          s.outcomeZone(outcome),
			ReservationID: outcome.ReservationID,
			OfferingID:    s.outcomeOffering(outcome),
			Timestamp:     time.Now().UTC(),
		})
	}

	return outcome
}

// acquire runs the catalog-select-purchase sequence. The caller holds the
// purchase lease.
func (s *CapacityService) acquire(ctx context.Context, resourceClass string, durationHours int32, zone string) domain.EnsureOutcome {
	zone = s.effectiveZone(ctx, zone)

	offerings, err := s.catalog.List(ctx, resourceClass, durationHours, zone)
	if err != nil {
		s.logger.Error("offering query failed",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)

		return domain.EnsureOutcome{Result: domain.ResultFailed, Err: err}
	}
	if len(offerings) == 0 {
		s.logger.Info("no purchasable offerings",
			zap.String("resource_class", resourceClass),
			zap.String("zone", zone),
			zap.Int32("duration_hours", durationHours),
		)

		return domain.EnsureOutcome{Result: domain.ResultNoOfferings}
	}

	selected := domain.SelectEarliest(offerings)

	s.logger.Info("purchasing capacity block",
		zap.String("resource_class", resourceClass),
		zap.String("offering_id", selected.OfferingID),
		zap.String("zone", selected.Zone),
		zap.Time("start_at", selected.StartAt),
		zap.String("upfront_fee", selected.UpfrontFee),
	)

	block, err := s.purchaser.Purchase(ctx, selected.OfferingID)
	if err != nil {
		s.logger.Error("capacity purchase failed",
			zap.String("resource_class", resourceClass),
			zap.String("offering_id", selected.OfferingID),
			zap.Error(err),
		)

		return domain.EnsureOutcome{Result: domain.ResultFailed, Offering: selected, Err: err}
	}

	// The reservation exists whether or not the caller is still around, so
	// the bookkeeping writes run on a detached context.
	recordCtx, cancel := detached(ctx)
	defer cancel()
	s.recordAcquisition(recordCtx, block, selected)

	return domain.EnsureOutcome{
		Result:        domain.ResultPurchased,
		Block:         block,
		Offering:      selected,
		ReservationID: block.ReservationID,
	}
}

// recordAcquisition writes the audit note and history row and invalidates the
// status snapshot. All best-effort: a dead store never turns a completed
// purchase into a failure.
func (s *CapacityService) recordAcquisition(ctx context.Context, block *domain.CapacityBlock, offering *domain.Offering) {
	rec := domain.AuditRecord{
		ReservationID: block.ReservationID,
		ResourceClass: block.ResourceClass,
		Zone:          block.Zone,
		State:         block.State,
		OfferingID:    offering.OfferingID,
		StartAt:       block.StartAt,
		EndAt:         block.EndAt,
		AcquiredAt:    time.Now().UTC(),
	}

	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.Warn("audit record write failed",
			zap.String("reservation_id", rec.ReservationID),
			zap.Error(err),
		)
	}
	if err := s.history.Insert(ctx, &rec); err != nil {
		s.logger.Warn("acquisition history write failed",
			zap.String("reservation_id", rec.ReservationID),
			zap.Error(err),
		)
	}
	if err := s.cache.Delete(ctx, snapshotKey(block.ResourceClass)); err != nil {
		s.logger.Warn("snapshot invalidation failed",
			zap.String("resource_class", block.ResourceClass),
			zap.Error(err),
		)
	}
}

// Snapshot is the cached reservation view backing the read-only status
// endpoint and the dashboard. HasActive reports whether any in-scope
// reservation exists; a pending or payment-pending block counts the same as
// an active one.
type Snapshot struct {
	ResourceClass string                 `json:"resource_class"`
	Blocks        []domain.CapacityBlock `json:"blocks"`
	HasActive     bool                   `json:"has_active"`
	RefreshedAt   time.Time              `json:"refreshed_at"`
}

// Status serves the reservation snapshot read-through: cached copy when
// fresh, otherwise a live directory query whose result is cached.
func (s *CapacityService) Status(ctx context.Context, resourceClass string) (*Snapshot, error) {
	key := snapshotKey(resourceClass)

	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		// Corrupt entry: fall through to a live refresh.
	}

	return s.RefreshSnapshot(ctx, resourceClass)
}

// RefreshSnapshot queries the directory across all zones and caches the
// result.
func (s *CapacityService) RefreshSnapshot(ctx context.Context, resourceClass string) (*Snapshot, error) {
	blocks, err := s.directory.Find(ctx, resourceClass, "")
	if err != nil {
		return nil, fmt.Errorf("refreshing snapshot for %s: %w", resourceClass, err)
	}

	snap := &Snapshot{
		ResourceClass: resourceClass,
		Blocks:        blocks,
		HasActive:     len(blocks) > 0,
		RefreshedAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot for %s: %w", resourceClass, err)
	}
	if err := s.cache.Set(ctx, snapshotKey(resourceClass), payload, s.opts.SnapshotTTL); err != nil {
		s.logger.Warn("snapshot cache write failed",
			zap.String("resource_class", resourceClass),
			zap.Error(err),
		)
	}

	return snap, nil
}

// History returns the most recent acquisitions for the admin surface.
func (s *CapacityService) History(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	return s.history.ListRecent(ctx, limit)
}

// AcquisitionCounts returns per-class acquisition totals for the dashboard.
func (s *CapacityService) AcquisitionCounts(ctx context.Context) (map[string]int64, error) {
	return s.history.CountByClass(ctx)
}

// effectiveZone picks the zone offerings are filtered to: request zone, then
// the configured pin, then network-topology autodiscovery. Empty means all
// zones.
func (s *CapacityService) effectiveZone(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if s.opts.Zone != "" {
		return s.opts.Zone
	}

	zone, err := s.zones.PreferredZone(ctx)
	if err != nil {
		s.logger.Warn("zone autodiscovery failed, using all zones", zap.Error(err))

		return ""
	}

	return zone
}

func (s *CapacityService) outcomeZone(o domain.EnsureOutcome) string {
	if o.Block != nil {
		return o.Block.Zone
	}
	if o.Offering != nil {
		return o.Offering.Zone
	}

	return ""
}

func (s *CapacityService) outcomeOffering(o domain.EnsureOutcome) string {
	if o.Offering != nil {
		return o.Offering.OfferingID
	}

	return ""
}

func snapshotKey(resourceClass string) string {
	return "snapshot/" + resourceClass
}

// detached derives a context that survives cancellation of the request that
// spawned it, bounded so lease cleanup and post-purchase bookkeeping cannot
// hang forever.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
}
