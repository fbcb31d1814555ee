package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/export"
	"github.com/actdesk/backend/internal/domain/shared"
)

func newTestExport(number, format string, created time.Time) *export.Record {
	a := act.New()
	a.Number = number
	a.Acceptor.Name = "SIA Alfa"
	a.Transferor.Name = "SIA Beta"
	a.AddItem(act.NewLineItem("Montāža", "2", "h", "25.50"))

	r := export.NewRecord(a, format)
	r.CreatedAt = created
	r.UpdatedAt = created
	r.Stored("2025/01/"+r.ID.String()+"."+format, "/files/x", "application/pdf", 2048)
	return r
}

func TestExportRepository_SaveAndFind(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormExportRepository(db)
	ctx := context.Background()

	rec := newTestExport("PP-2025-001", "pdf", time.Now())
	rec.Warnings = []string{"logo not found", "attachment skipped"}
	rec.PageCount = 3
	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "PP-2025-001", found.ActNumber)
	assert.Equal(t, "51.00", found.GrandTotal.StringFixed(2))
	assert.Equal(t, []string{"logo not found", "attachment skipped"}, found.Warnings)
	assert.Equal(t, 3, found.PageCount)
	assert.EqualValues(t, 2048, found.Size)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestExportRepository_FindAll(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormExportRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		format := "pdf"
		if i%2 == 1 {
			format = "docx"
		}
		rec := newTestExport(fmt.Sprintf("PP-%03d", i+1), format, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, rec))
	}

	t.Run("newest first", func(t *testing.T) {
		records, total, err := repo.FindAll(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, records, 5)
		assert.Equal(t, "PP-005", records[0].ActNumber)
		assert.Empty(t, records[0].Warnings)
	})

	t.Run("filter by format", func(t *testing.T) {
		records, total, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]interface{}{"format": "docx"}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, r := range records {
			assert.Equal(t, "docx", r.Format)
		}
	})

	t.Run("search by number", func(t *testing.T) {
		records, total, err := repo.FindAll(ctx, shared.Filter{Search: "pp-003"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, records, 1)
		assert.Equal(t, "PP-003", records[0].ActNumber)
	})

	t.Run("page", func(t *testing.T) {
		records, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2, OrderBy: "act_number", OrderDir: "asc"})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, records, 2)
		assert.Equal(t, "PP-001", records[0].ActNumber)
	})
}

func TestExportRepository_Prune(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewGormExportRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	old1 := newTestExport("PP-OLD-1", "pdf", base)
	old2 := newTestExport("PP-OLD-2", "docx", base.Add(time.Hour))
	fresh := newTestExport("PP-NEW", "pdf", base.AddDate(0, 2, 0))
	for _, r := range []*export.Record{fresh, old2, old1} {
		require.NoError(t, repo.Save(ctx, r))
	}

	cutoff := base.AddDate(0, 1, 0)
	expired, err := repo.FindOlderThan(ctx, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, "PP-OLD-1", expired[0].ActNumber)
	assert.Equal(t, "PP-OLD-2", expired[1].ActNumber)

	limited, err := repo.FindOlderThan(ctx, cutoff, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.Delete(ctx, old1.ID))
	assert.ErrorIs(t, repo.Delete(ctx, old1.ID), shared.ErrNotFound)

	_, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
