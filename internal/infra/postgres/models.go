package postgres

import (
	"time"

	"capacity-manager/internal/domain"
)

// AcquisitionModel is the GORM model for the acquisitions table.
type AcquisitionModel struct {
	ID            string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReservationID string `gorm:"type:varchar(100);not null;index"`
	ResourceClass string `gorm:"type:varchar(50);not null;index"`
	Zone          string `gorm:"type:varchar(30)"`
	State         string `gorm:"type:varchar(20);not null"`
	OfferingID    string `gorm:"type:varchar(100)"`

	// Reservation lifetime as reported by the provider.
	StartAt time.Time `gorm:"not null"`
	EndAt   time.Time `gorm:"not null"`

	AcquiredAt time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for AcquisitionModel.
func (AcquisitionModel) TableName() string {
	return "acquisitions"
}

// ToDomain converts AcquisitionModel to domain.AuditRecord.
func (m *AcquisitionModel) ToDomain() domain.AuditRecord {
	return domain.AuditRecord{
		ReservationID: m.ReservationID,
		ResourceClass: m.ResourceClass,
		Zone:          m.Zone,
		State:         domain.BlockState(m.State),
		OfferingID:    m.OfferingID,
		StartAt:       m.StartAt,
		EndAt:         m.EndAt,
		AcquiredAt:    m.AcquiredAt,
	}
}

// FromDomain creates an AcquisitionModel from domain.AuditRecord.
func FromDomain(rec *domain.AuditRecord) *AcquisitionModel {
	return &AcquisitionModel{
		ReservationID: rec.ReservationID,
		ResourceClass: rec.ResourceClass,
		Zone:          rec.Zone,
		State:         string(rec.State),
		OfferingID:    rec.OfferingID,
		StartAt:       rec.StartAt,
		EndAt:         rec.EndAt,
		AcquiredAt:    rec.AcquiredAt,
	}
}
