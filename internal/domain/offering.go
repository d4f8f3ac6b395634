package domain

import (
	"time"
)

// Offering is a purchasable capacity block offering returned by the provider.
// Offerings are ephemeral: generated on query, valid only for the window in
// which they were returned, never persisted or mutated.
type Offering struct {
	OfferingID    string `json:"offering_id"`
	ResourceClass string `json:"resource_class"`
	Zone          string `json:"zone"`
	InstanceCount int32  `json:"instance_count"`

	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	DurationHours int32     `json:"duration_hours"`

	UpfrontFee string `json:"upfront_fee"`
	Currency   string `json:"currency"`
}

// SelectEarliest picks the offering with the earliest start timestamp.
// Ties go to the first-encountered offering; duplicate start times for the
// same class and zone are not expected from the provider.
// Returns nil for an empty candidate list.
func SelectEarliest(offerings []Offering) *Offering {
	var best *Offering
	for i := range offerings {
		if best == nil || offerings[i].StartAt.Before(best.StartAt) {
			best = &offerings[i]
		}
	}
	return best
}
