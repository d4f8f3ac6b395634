package dto

import (
	"time"

	"capacity-manager/internal/domain"
)

// CapacityBlockResponse represents a capacity block reservation in responses.
type CapacityBlockResponse struct {
	ReservationID  string `json:"reservation_id"`
	ResourceClass  string `json:"resource_class"`
	Zone           string `json:"zone"`
	State          string `json:"state"`
	AvailableCount int32  `json:"available_count"`
	TotalCount     int32  `json:"total_count"`
	StartAt        string `json:"start_at"`
	EndAt          string `json:"end_at"`
}

// FromDomainBlock converts domain.CapacityBlock to CapacityBlockResponse.
func FromDomainBlock(b *domain.CapacityBlock) CapacityBlockResponse {
	return CapacityBlockResponse{
		ReservationID:  b.ReservationID,
		ResourceClass:  b.ResourceClass,
		Zone:           b.Zone,
		State:          string(b.State),
		AvailableCount: b.AvailableCount,
		TotalCount:     b.TotalCount,
		StartAt:        b.StartAt.Format(time.RFC3339),
		EndAt:          b.EndAt.Format(time.RFC3339),
	}
}

// OfferingResponse represents a purchasable offering in responses.
type OfferingResponse struct {
	OfferingID    string `json:"offering_id"`
	ResourceClass string `json:"resource_class"`
	Zone          string `json:"zone"`
	InstanceCount int32  `json:"instance_count"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	DurationHours int32  `json:"duration_hours"`
	UpfrontFee    string `json:"upfront_fee"`
	Currency      string `json:"currency"`
}

// FromDomainOffering converts domain.Offering to OfferingResponse.
func FromDomainOffering(o *domain.Offering) OfferingResponse {
	return OfferingResponse{
		OfferingID:    o.OfferingID,
		ResourceClass: o.ResourceClass,
		Zone:          o.Zone,
		InstanceCount: o.InstanceCount,
		StartAt:       o.StartAt.Format(time.RFC3339),
		EndAt:         o.EndAt.Format(time.RFC3339),
		DurationHours: o.DurationHours,
		UpfrontFee:    o.UpfrontFee,
		Currency:      o.Currency,
	}
}

// InvokeResponse is the body returned by POST /api/v1/capacity.
type InvokeResponse struct {
	StatusCode    int    `json:"status_code"`
	Action        string `json:"action"`
	ResourceClass string `json:"resource_class"`
	Zone          string `json:"zone,omitempty"`

	ActiveCapacityBlocks []CapacityBlockResponse `json:"active_capacity_blocks"`
	HasActive            bool                    `json:"has_active"`

	// Set for ensure/acquire only.
	Result        string                 `json:"result,omitempty"`
	CapacityBlock *CapacityBlockResponse `json:"capacity_block,omitempty"`
	Offering      *OfferingResponse      `json:"offering,omitempty"`
	ReservationID string                 `json:"reservation_id,omitempty"`
	Error         string                 `json:"error,omitempty"`
}

// StatusResponse is the body of GET /api/v1/capacity/status.
type StatusResponse struct {
	ResourceClass string                  `json:"resource_class"`
	Blocks        []CapacityBlockResponse `json:"blocks"`
	HasActive     bool                    `json:"has_active"`
	RefreshedAt   string                  `json:"refreshed_at"`
}

// AcquisitionResponse represents one history row in admin responses.
type AcquisitionResponse struct {
	ReservationID string `json:"reservation_id"`
	ResourceClass string `json:"resource_class"`
	Zone          string `json:"zone"`
	State         string `json:"state"`
	OfferingID    string `json:"offering_id"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	AcquiredAt    string `json:"acquired_at"`
}

// FromAuditRecord converts domain.AuditRecord to AcquisitionResponse.
func FromAuditRecord(rec domain.AuditRecord) AcquisitionResponse {
	return AcquisitionResponse{
		ReservationID: rec.ReservationID,
		ResourceClass: rec.ResourceClass,
		Zone:          rec.Zone,
		State:         string(rec.State),
		OfferingID:    rec.OfferingID,
		StartAt:       rec.StartAt.Format(time.RFC3339),
		EndAt:         rec.EndAt.Format(time.RFC3339),
		AcquiredAt:    rec.AcquiredAt.Format(time.RFC3339),
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
