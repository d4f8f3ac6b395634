package domain

import (
	"errors"
)

// Error taxonomy for the ensure-or-acquire workflow. Callers wrap these with
// fmt.Errorf("...: %w", err) and branch with errors.Is.
var (
	// ErrDiscovery marks a reservation or offering query failure. An empty
	// result under this error means "unknown", never "confirmed absent".
	ErrDiscovery = errors.New("capacity discovery failed")

	// ErrLeaseStore marks a read or write failure against the lease store.
	// Acquisition attempts fail closed: the lease is treated as denied.
	ErrLeaseStore = errors.New("lease store unavailable")

	// ErrAcquisition marks a failed purchase submission.
	ErrAcquisition = errors.New("capacity acquisition failed")

	// ErrUnknownAction marks a malformed invocation request. No side effects.
	ErrUnknownAction = errors.New("unknown action")
)
