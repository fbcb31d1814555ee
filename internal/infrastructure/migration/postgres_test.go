package migration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence"
)

// openPostgres starts a throwaway PostgreSQL container
func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("actdesk_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestMigrator_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openPostgres(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := New(sqlDB, "postgres", zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, m.Up())
	assert.EqualValues(t, 1, currentVersion(t, m))
	assert.True(t, db.Migrator().HasTable("address_book"))
	assert.True(t, db.Migrator().HasTable("export_records"))

	ctx := context.Background()

	t.Run("address book upsert and list", func(t *testing.T) {
		repo := persistence.NewGormAddressBookRepository(db)
		entry, err := addressbook.NewEntry(act.Party{
			Name:               "SIA Alfa",
			RegistrationNumber: "40003123456",
			LegalStatus:        act.LegalStatusLegalEntity,
		})
		require.NoError(t, err)
		entry.Touch(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Save(ctx, entry))

		entry.Update(act.Party{Phone: "+371 29999999"})
		require.NoError(t, repo.Save(ctx, entry))

		found, total, err := repo.FindAll(ctx, shared.Filter{Search: "alfa", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, found, 1)
		assert.Equal(t, entry.ID, found[0].ID)
		assert.Equal(t, "+371 29999999", found[0].Party.Phone)
	})

	t.Run("export round trip", func(t *testing.T) {
		repo := persistence.NewGormExportRepository(db)
		a := act.New()
		a.Number = "PP-2025-001"
		a.Acceptor.Name = "SIA Alfa"
		a.Transferor.Name = "SIA Beta"
		a.AddItem(act.NewLineItem("Montāža", "2", "h", "25.50"))

		rec := export.NewRecord(a, "pdf")
		rec.Warnings = []string{"logo not found"}
		rec.Stored("2025/01/"+rec.ID.String()+".pdf", "/files/x", "application/pdf", 2048)
		require.NoError(t, repo.Save(ctx, rec))

		found, err := repo.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "PP-2025-001", found.ActNumber)
		assert.Equal(t, "51.00", found.GrandTotal.StringFixed(2))
		assert.Equal(t, []string{"logo not found"}, found.Warnings)

		list, total, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]interface{}{"format": "pdf"}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, rec.ID, list[0].ID)
	})

	require.NoError(t, m.Down())
	assert.False(t, db.Migrator().HasTable("address_book"))
	assert.False(t, db.Migrator().HasTable("export_records"))
}
