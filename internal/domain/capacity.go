// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// BlockState represents the lifecycle state of a capacity block reservation.
// State transitions are owned by the provider; this system only observes them.
type BlockState string

const (
	StateActive         BlockState = "active"
	StatePending        BlockState = "pending"
	StatePaymentPending BlockState = "payment-pending"
	StateOther          BlockState = "other"
)

// ParseBlockState maps a provider-reported state string to a BlockState.
// Anything outside the states this system acts on collapses to StateOther.
func ParseBlockState(s string) BlockState {
	switch BlockState(s) {
	case StateActive, StatePending, StatePaymentPending:
		return BlockState(s)
	default:
		return StateOther
	}
}

// CapacityBlock represents a time-bound capacity reservation as reported by
// the provider. Records are read-only to this system: it holds transient,
// non-authoritative copies and never mutates them.
type CapacityBlock struct {
	ReservationID string     `json:"reservation_id"`
	ResourceClass string     `json:"resource_class"`
	Zone          string     `json:"zone"`
	State         BlockState `json:"state"`

	AvailableCount int32 `json:"available_count"`
	TotalCount     int32 `json:"total_count"`

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// IsTimeBound reports whether the reservation has a definite end date.
// Open-ended reservations are not capacity blocks and never count toward
// the "one already exists" decision.
func (b *CapacityBlock) IsTimeBound() bool {
	return !b.EndAt.IsZero()
}

// IsActive reports whether the block is currently usable.
func (b *CapacityBlock) IsActive() bool {
	return b.State == StateActive
}

// IsUpcoming reports whether the block has been acquired but is not yet
// active (pending or payment-pending).
func (b *CapacityBlock) IsUpcoming() bool {
	return b.State == StatePending || b.State == StatePaymentPending
}

// FirstActive returns the first active block in the slice, or nil.
func FirstActive(blocks []CapacityBlock) *CapacityBlock {
	for i := range blocks {
		if blocks[i].IsActive() {
			return &blocks[i]
		}
	}
	return nil
}

// FirstUpcoming returns the first pending or payment-pending block, or nil.
func FirstUpcoming(blocks []CapacityBlock) *CapacityBlock {
	for i := range blocks {
		if blocks[i].IsUpcoming() {
			return &blocks[i]
		}
	}
	return nil
}
