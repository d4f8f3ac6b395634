package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// createAcquisitionsTable creates the acquisitions table with all indexes.
func createAcquisitionsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_create_acquisitions",
		Migrate: func(tx *gorm.DB) error {
			err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS acquisitions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					reservation_id VARCHAR(100) NOT NULL,
					resource_class VARCHAR(50) NOT NULL,
					zone VARCHAR(30),
					state VARCHAR(20) NOT NULL,
					offering_id VARCHAR(100),

					-- Reservation lifetime
					start_at TIMESTAMP NOT NULL,
					end_at TIMESTAMP NOT NULL,

					acquired_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				);
			`).Error
			if err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_acquisitions_reservation_id ON acquisitions(reservation_id);",
				"CREATE INDEX IF NOT EXISTS idx_acquisitions_resource_class ON acquisitions(resource_class);",
				"CREATE INDEX IF NOT EXISTS idx_acquisitions_acquired_at ON acquisitions(acquired_at DESC);",
			}

			for _, idx := range indexes {
				if err := tx.Exec(idx).Error; err != nil {
					return err
				}
			}

			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS acquisitions;").Error
		},
	}
}
