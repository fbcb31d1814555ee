package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/shared"
	"github.com/actdesk/backend/internal/infrastructure/persistence/models"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.PartyModel{}, &models.ExportModel{})
	require.NoError(t, err)

	return db
}

func newTestEntry(t *testing.T, p act.Party) *addressbook.Entry {
	e, err := addressbook.NewEntry(p)
	require.NoError(t, err)
	return e
}

func TestAddressBookRepository_SaveAndFind(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormAddressBookRepository(db)
	ctx := context.Background()

	entry := newTestEntry(t, act.Party{
		Name:               "SIA Ziemeļu Būve",
		RegistrationNumber: "40003123456",
		Address:            "Rīga, Brīvības iela 1",
		LegalStatus:        act.LegalStatusLegalEntity,
	})
	entry.Touch(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, entry))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.Party, found.Party)
		assert.Equal(t, 1, found.UseCount)
	})

	t.Run("by key", func(t *testing.T) {
		found, err := repo.FindByKey(ctx, "reg:40003123456")
		require.NoError(t, err)
		assert.Equal(t, entry.ID, found.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.FindByKey(ctx, "name:nobody")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update in place", func(t *testing.T) {
		entry.Update(act.Party{Phone: "+371 29999999"})
		require.NoError(t, repo.Save(ctx, entry))

		found, err := repo.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, "+371 29999999", found.Party.Phone)
		assert.Equal(t, "Rīga, Brīvības iela 1", found.Party.Address)
	})
}

func TestAddressBookRepository_FindAll(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormAddressBookRepository(db)
	ctx := context.Background()

	names := []string{"SIA Alfa", "SIA Beta", "Jānis Bērziņš", "SIA Alfa Serviss"}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range names {
		e := newTestEntry(t, act.Party{Name: name})
		e.Touch(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, repo.Save(ctx, e))
	}

	t.Run("most recently used first", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, entries, 4)
		assert.Equal(t, "SIA Alfa Serviss", entries[0].Party.Name)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, shared.Filter{Search: "alfa", OrderBy: "name", OrderDir: "asc"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, entries, 2)
		assert.Equal(t, "SIA Alfa", entries[0].Party.Name)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		assert.Len(t, entries, 1)
	})

	t.Run("unknown sort field falls back", func(t *testing.T) {
		entries, _, err := repo.FindAll(ctx, shared.Filter{OrderBy: "name; DROP TABLE address_book"})
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	})
}

func TestAddressBookRepository_Delete(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormAddressBookRepository(db)
	ctx := context.Background()

	entry := newTestEntry(t, act.Party{Name: "SIA Gamma"})
	require.NoError(t, repo.Save(ctx, entry))

	require.NoError(t, repo.Delete(ctx, entry.ID))
	assert.ErrorIs(t, repo.Delete(ctx, entry.ID), shared.ErrNotFound)
}
