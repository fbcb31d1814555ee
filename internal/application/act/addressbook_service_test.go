package act_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/actdesk/backend/internal/application/act"
	domain "github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/domain/addressbook"
	"github.com/actdesk/backend/internal/domain/shared"
)

func TestAddressBookService_Remember(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	t.Run("creates new and touches known parties", func(t *testing.T) {
		known, err := addressbook.NewEntry(domain.Party{Name: "SIA Zināms", RegistrationNumber: "40003000001"})
		require.NoError(t, err)
		known.UseCount = 3

		repo := new(MockAddressBookRepository)
		repo.On("FindByKey", mock.Anything, "reg:40003000001").Return(known, nil)
		repo.On("FindByKey", mock.Anything, "name:jānis bērziņš").Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		svc := act.NewAddressBookService(repo, nil)
		svc.SetClock(func() time.Time { return now })

		err = svc.Remember(ctx,
			domain.Party{Name: "SIA Zināms", RegistrationNumber: "4000 3000 001", Phone: "+371 20000000"},
			domain.Party{Name: "Jānis  Bērziņš"},
			domain.Party{},
		)
		require.NoError(t, err)

		assert.Equal(t, 4, known.UseCount)
		assert.Equal(t, now, known.LastUsedAt)
		assert.Equal(t, "+371 20000000", known.Party.Phone)

		repo.AssertNumberOfCalls(t, "Save", 2)
		created := repo.Calls[len(repo.Calls)-1].Arguments.Get(1).(*addressbook.Entry)
		assert.Equal(t, "Jānis  Bērziņš", created.Party.Name)
		assert.Equal(t, 1, created.UseCount)
	})

	t.Run("errors are joined", func(t *testing.T) {
		repo := new(MockAddressBookRepository)
		repo.On("FindByKey", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		svc := act.NewAddressBookService(repo, nil)

		err := svc.Remember(ctx, domain.Party{Name: "A"}, domain.Party{Name: "B"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestAddressBookService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("name required", func(t *testing.T) {
		repo := new(MockAddressBookRepository)
		repo.On("FindByKey", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		svc := act.NewAddressBookService(repo, nil)

		_, err := svc.Save(ctx, domain.Party{Name: " "})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("does not count as a use", func(t *testing.T) {
		repo := new(MockAddressBookRepository)
		repo.On("FindByKey", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		svc := act.NewAddressBookService(repo, nil)

		resp, err := svc.Save(ctx, domain.Party{Name: "SIA Jauns", Email: "info@jauns.lv"})
		require.NoError(t, err)
		assert.Equal(t, "SIA Jauns", resp.Name)
		assert.Equal(t, 0, resp.UseCount)
		assert.Nil(t, resp.LastUsedAt)
	})
}

func TestAddressBookService_Update(t *testing.T) {
	ctx := context.Background()
	entry, err := addressbook.NewEntry(domain.Party{Name: "SIA Vecs", Address: "Rīga"})
	require.NoError(t, err)

	repo := new(MockAddressBookRepository)
	repo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, entry).Return(nil)
	svc := act.NewAddressBookService(repo, nil)

	resp, err := svc.Update(ctx, entry.ID, domain.Party{Name: "SIA Jauns"})
	require.NoError(t, err)
	assert.Equal(t, "SIA Jauns", resp.Name)
	assert.Equal(t, "Rīga", resp.Address)

	_, err = svc.Update(ctx, uuid.New(), domain.Party{Name: "X"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Update(ctx, entry.ID, domain.Party{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAddressBookService_List(t *testing.T) {
	entry, err := addressbook.NewEntry(domain.Party{Name: "SIA Saraksts"})
	require.NoError(t, err)

	repo := new(MockAddressBookRepository)
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 20 && f.Search == "sar"
	})).Return([]addressbook.Entry{*entry}, int64(21), nil)
	svc := act.NewAddressBookService(repo, nil)

	resp, err := svc.List(context.Background(), act.ListPartiesRequest{Page: 2, Search: "sar"})
	require.NoError(t, err)
	assert.Equal(t, int64(21), resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, entry.ID.String(), resp.Items[0].ID)
}

func TestAddressBookService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	repo := new(MockAddressBookRepository)
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)
	repo.On("Delete", mock.Anything, id).Return(nil)
	svc := act.NewAddressBookService(repo, nil)

	_, err := svc.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, svc.Delete(ctx, id))
}
