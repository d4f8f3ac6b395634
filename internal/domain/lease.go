package domain

import (
	"time"
)

// Lease is the durable record guarding a capacity purchase, one per resource
// class. It is the only state this system authoritatively owns. At most one
// valid (non-expired) lease exists per resource class at any time; a lease
// older than its TTL is treated as absent even if still physically present.
type Lease struct {
	Timestamp     time.Time `json:"timestamp"`
	ResourceClass string    `json:"resource_class"`
}

// Expired reports whether the lease is older than ttl at the given instant.
func (l *Lease) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(l.Timestamp) > ttl
}

// AuditRecord is a best-effort durable note of a completed acquisition, kept
// for operator visibility. It is never read back for correctness decisions.
type AuditRecord struct {
	ReservationID string     `json:"reservation_id"`
	ResourceClass string     `json:"resource_class"`
	Zone          string     `json:"zone"`
	State         BlockState `json:"state"`
	OfferingID    string     `json:"offering_id"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         time.Time  `json:"end_at"`
	AcquiredAt    time.Time  `json:"acquired_at"`
}
