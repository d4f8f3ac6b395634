package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"capacity-manager/internal/domain"
)

// Repository implements domain.AcquisitionHistory using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a completed acquisition to the history log.
func (r *Repository) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	model := FromDomain(rec)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("inserting acquisition: %w", err)
	}

	return nil
}

// ListRecent returns the most recent acquisitions, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []AcquisitionModel
	err := r.db.WithContext(ctx).
		Order("acquired_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing acquisitions: %w", err)
	}

	records := make([]domain.AuditRecord, len(models))
	for i, m := range models {
		records[i] = m.ToDomain()
	}

	return records, nil
}

// CountByClass returns the number of recorded acquisitions per resource class.
func (r *Repository) CountByClass(ctx context.Context) (map[string]int64, error) {
	type row struct {
		ResourceClass string
		Total         int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&AcquisitionModel{}).
		Select("resource_class, COUNT(*) AS total").
		Group("resource_class").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting acquisitions: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ResourceClass] = r.Total
	}

	return counts, nil
}
