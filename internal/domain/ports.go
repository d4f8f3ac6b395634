package domain

import (
	"context"
	"time"
)

// ReservationDirectory queries the provider for existing reservations of a
// resource class. zone may be empty to search across all zones.
// Implementations: internal/infra/awsec2/directory.go
//
// Duplicate-purchase prevention MUST call Find with an empty zone: a
// reservation in a different zone still counts as "one exists".
type ReservationDirectory interface {
	// Find returns reservations in state active, pending or payment-pending
	// that are time-bound. On query failure it returns an empty slice and an
	// error wrapping ErrDiscovery; callers must treat that as "unknown".
	Find(ctx context.Context, resourceClass, zone string) ([]CapacityBlock, error)
}

// OfferingCatalog queries the provider for purchasable offerings.
// Implementations: internal/infra/awsec2/catalog.go
type OfferingCatalog interface {
	// List returns offerings for the class and duration inside the catalog's
	// forward window, filtered to zone when non-empty. An empty slice with a
	// nil error means nothing is purchasable right now.
	List(ctx context.Context, resourceClass string, durationHours int32, zone string) ([]Offering, error)
}

// CapacityPurchaser submits the acquisition of a selected offering.
// Implementations: internal/infra/awsec2/purchaser.go
type CapacityPurchaser interface {
	// Purchase buys the offering and returns the reservation the provider
	// created for it, tagged with ownership metadata.
	Purchase(ctx context.Context, offeringID string) (*CapacityBlock, error)
}

// LeaseStore is the mutual-exclusion primitive guarding acquisition, one
// lease per resource class, backed by a shared durable store.
// Implementations: internal/infra/redis/leasestore.go
type LeaseStore interface {
	// TryAcquire attempts to take the purchase lease for the class using a
	// single atomic create-if-absent write. Store errors report denied
	// (fail closed) alongside the error.
	TryAcquire(ctx context.Context, resourceClass string) (bool, error)

	// Release deletes the lease unconditionally. Idempotent: releasing an
	// absent lease is not an error.
	Release(ctx context.Context, resourceClass string) error
}

// AuditStore records completed acquisitions, best-effort.
// Implementations: internal/infra/redis/auditstore.go
type AuditStore interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// AcquisitionHistory is the durable, queryable log of past acquisitions
// backing the admin API and dashboard.
// Implementations: internal/infra/postgres/repository.go
type AcquisitionHistory interface {
	Insert(ctx context.Context, rec *AuditRecord) error
	ListRecent(ctx context.Context, limit int) ([]AuditRecord, error)
	CountByClass(ctx context.Context) (map[string]int64, error)
}

// ZoneLookup derives a preferred availability zone from network topology
// when none is configured or requested. Best-effort.
// Implementations: internal/infra/awsec2/zones.go
type ZoneLookup interface {
	PreferredZone(ctx context.Context) (string, error)
}

// AcquisitionEvent is the payload sent to the telemetry sink.
type AcquisitionEvent struct {
	Result        EnsureResult `json:"result"`
	ResourceClass string       `json:"resource_class"`
	Zone          string       `json:"zone,omitempty"`
	ReservationID string       `json:"reservation_id,omitempty"`
	OfferingID    string       `json:"offering_id,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

// Notifier delivers acquisition events to an external sink. Fire-and-forget:
// delivery failures are logged by implementations and never affect the
// workflow's control flow.
// Implementations: internal/infra/notify/webhook.go
type Notifier interface {
	AcquisitionCompleted(ctx context.Context, event AcquisitionEvent)
}

// Cache is a namespaced key-value store with TTL used for status snapshots.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error
}
