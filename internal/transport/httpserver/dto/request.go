// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

// Actions accepted by the capacity endpoint. check and status are read-only;
// ensure and acquire run the idempotent ensure-or-acquire workflow (acquire
// is an alias: a forced unconditional purchase path is deliberately not
// offered).
const (
	ActionCheck   = "check"
	ActionStatus  = "status"
	ActionEnsure  = "ensure"
	ActionAcquire = "acquire"
)

// InvokeRequest is the body of POST /api/v1/capacity.
type InvokeRequest struct {
	Action        string   `json:"action" validate:"required,oneof=check status ensure acquire"`
	ResourceClass string   `json:"resource_class" validate:"omitempty,max=50"`
	Labels        []string `json:"labels" validate:"omitempty,max=20,dive,max=50"`
	Zone          string   `json:"zone" validate:"omitempty,max=30"`
	DurationHours int32    `json:"duration_hours" validate:"omitempty,min=1,max=4368"`
}

// ReadOnly reports whether the action never mutates the lease or submits an
// acquisition.
func (r *InvokeRequest) ReadOnly() bool {
	return r.Action == ActionCheck || r.Action == ActionStatus
}

// StatusRequest is the query of GET /api/v1/capacity/status.
type StatusRequest struct {
	ResourceClass string `query:"resource_class" validate:"omitempty,max=50"`
}

// RefreshRequest is the body of POST /api/v1/admin/refresh.
type RefreshRequest struct {
	ResourceClass string `json:"resource_class" validate:"omitempty,max=50"`
}

// AcquisitionsRequest is the query of GET /api/v1/admin/acquisitions.
type AcquisitionsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}
