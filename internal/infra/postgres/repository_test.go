package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgresContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"capacity-manager/internal/domain"
	"capacity-manager/internal/infra/postgres/migrations"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connected GORM DB
//
// Prerequisites:
//   - Docker must be running
//   - Run: docker-compose up postgres
//
// OR
//   - Skip tests with: go test -short
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgresContainer.Run(ctx,
		"postgres:16-alpine",
		postgresContainer.WithDatabase("testdb"),
		postgresContainer.WithUsername("testuser"),
		postgresContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf(`Failed to start PostgreSQL container: %v

Docker Prerequisites:
1. Ensure Docker is running
2. OR use existing postgres: docker-compose up postgres
3. OR skip integration tests: go test -short

`, err)
	}

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	// Connect to database
	db, err := gorm.Open(postgresDriver.Open(connStr), &gorm.Config{
		Logger: nil, // Silent logger for tests
	})
	require.NoError(t, err, "Failed to connect to test database")

	// Run the real migrations, not AutoMigrate
	err = migrations.Run(db)
	require.NoError(t, err, "Failed to run migrations")

	// Cleanup function
	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

// testRecord is a factory function for creating acquisition records
func testRecord(reservationID string, acquiredAt time.Time) *domain.AuditRecord {
	return &domain.AuditRecord{
		ReservationID: reservationID,
		ResourceClass: "p6-b200.48xlarge",
		Zone:          "us-east-1a",
		State:         domain.StatePending,
		OfferingID:    "cbo-0123456789abcdef0",
		StartAt:       acquiredAt.Add(24 * time.Hour),
		EndAt:         acquiredAt.Add(48 * time.Hour),
		AcquiredAt:    acquiredAt,
	}
}

// TestInsert_CreatesRecord verifies that Insert persists an acquisition
func TestInsert_CreatesRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	rec := testRecord("cr-0aaa111122223333", time.Now().UTC())
	err := repo.Insert(ctx, rec)
	require.NoError(t, err)

	// Verify record exists in database
	var model AcquisitionModel
	err = db.Where("reservation_id = ?", "cr-0aaa111122223333").First(&model).Error
	require.NoError(t, err)
	assert.NotEmpty(t, model.ID, "ID should be generated")
	assert.Equal(t, "p6-b200.48xlarge", model.ResourceClass)
	assert.Equal(t, "us-east-1a", model.Zone)
	assert.Equal(t, string(domain.StatePending), model.State)
	assert.Equal(t, "cbo-0123456789abcdef0", model.OfferingID)
}

// TestInsert_AllowsRepeatedReservations verifies the log is append-only:
// re-recording the same reservation adds a new row rather than failing
func TestInsert_AllowsRepeatedReservations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Insert(ctx, testRecord("cr-0aaa111122223333", now)))
	require.NoError(t, repo.Insert(ctx, testRecord("cr-0aaa111122223333", now.Add(time.Minute))))

	var count int64
	err := db.Model(&AcquisitionModel{}).
		Where("reservation_id = ?", "cr-0aaa111122223333").
		Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

// TestListRecent_OrdersNewestFirst verifies ordering and limit
func TestListRecent_OrdersNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		rec := testRecord("cr-000000000000000"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Insert(ctx, rec))
	}

	records, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first
	assert.Equal(t, "cr-000000000000000e", records[0].ReservationID)
	assert.Equal(t, "cr-000000000000000d", records[1].ReservationID)
	assert.Equal(t, "cr-000000000000000c", records[2].ReservationID)
}

// TestListRecent_DefaultLimit verifies a non-positive limit falls back to the default
func TestListRecent_DefaultLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testRecord("cr-0aaa111122223333", time.Now().UTC())))

	records, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestListRecent_RoundTripsDomainFields verifies model conversion preserves values
func TestListRecent_RoundTripsDomainFields(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	acquired := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rec := testRecord("cr-0aaa111122223333", acquired)
	require.NoError(t, repo.Insert(ctx, rec))

	records, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, rec.ReservationID, got.ReservationID)
	assert.Equal(t, rec.ResourceClass, got.ResourceClass)
	assert.Equal(t, rec.Zone, got.Zone)
	assert.Equal(t, rec.State, got.State)
	assert.Equal(t, rec.OfferingID, got.OfferingID)
	assert.Equal(t, rec.StartAt.Unix(), got.StartAt.Unix())
	assert.Equal(t, rec.EndAt.Unix(), got.EndAt.Unix())
	assert.Equal(t, rec.AcquiredAt.Unix(), got.AcquiredAt.Unix())
}

// TestCountByClass verifies per-class aggregation
func TestCountByClass(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, testRecord("cr-p6-"+string(rune('a'+i)), now)))
	}

	h100 := testRecord("cr-p5-a", now)
	h100.ResourceClass = "p5.48xlarge"
	require.NoError(t, repo.Insert(ctx, h100))

	counts, err := repo.CountByClass(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts["p6-b200.48xlarge"])
	assert.Equal(t, int64(1), counts["p5.48xlarge"])
}

// TestInsert_ConcurrentOperations verifies goroutine safety
func TestInsert_ConcurrentOperations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	const goroutines = 10
	var wg sync.WaitGroup
	errChan := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(iteration int) {
			defer wg.Done()

			rec := testRecord("cr-concurrent-"+string(rune('a'+iteration)), time.Now().UTC())
			if err := repo.Insert(ctx, rec); err != nil {
				errChan <- err
			}
		}(i)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	assert.Empty(t, errs, "No errors should occur during concurrent inserts")

	var count int64
	err := db.Model(&AcquisitionModel{}).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines), count)
}
