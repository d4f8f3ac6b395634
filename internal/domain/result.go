package domain

// EnsureResult is the terminal outcome of one ensure-or-acquire invocation.
type EnsureResult string

const (
	// ResultExists: an active reservation already covers the class.
	ResultExists EnsureResult = "exists"
	// ResultPending: a reservation is already on its way (pending or
	// payment-pending); nothing to do but wait.
	ResultPending EnsureResult = "pending"
	// ResultLocked: another invocation holds the purchase lease.
	ResultLocked EnsureResult = "locked"
	// ResultNoOfferings: the lease was held but nothing is purchasable
	// right now. A legitimate terminal state, not a failure.
	ResultNoOfferings EnsureResult = "no_offerings"
	// ResultPurchased: an offering was selected and acquired.
	ResultPurchased EnsureResult = "purchased"
	// ResultFailed: discovery or the purchase itself failed.
	ResultFailed EnsureResult = "failed"
)

// EnsureOutcome carries the terminal result of an ensure invocation plus the
// record or offering it is about, when one applies.
type EnsureOutcome struct {
	Result        EnsureResult
	Block         *CapacityBlock
	Offering      *Offering
	ReservationID string
	Err           error
}
