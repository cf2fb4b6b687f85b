package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/soaresmg/liber/internal/catalog"
)

func newService(t *testing.T) (*catalog.Service, *catalog.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	return catalog.NewService(repo), repo
}

func TestService_CreateBook(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().CreateBook(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, book *catalog.Book) error {
				book.ID = uuid.New()
				return nil
			})

		book, err := svc.CreateBook(context.Background(), catalog.CreateBookParams{
			ISBN:  "9780140449136",
			Title: "The Odyssey",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, book.ID)
	})

	t.Run("MissingISBN", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.CreateBook(context.Background(), catalog.CreateBookParams{Title: "The Odyssey"})
		require.ErrorIs(t, err, catalog.ErrInvalidBook)
	})
}

func TestService_HasAvailableCopy(t *testing.T) {
	svc, repo := newService(t)

	bookID := uuid.New()

	repo.EXPECT().CountAvailableCopies(gomock.Any(), bookID).Return(2, nil)

	available, err := svc.HasAvailableCopy(context.Background(), bookID)
	require.NoError(t, err)
	assert.True(t, available)

	repo.EXPECT().CountAvailableCopies(gomock.Any(), bookID).Return(0, nil)

	available, err = svc.HasAvailableCopy(context.Background(), bookID)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestService_IsCopyAvailable(t *testing.T) {
	svc, repo := newService(t)

	copyID := uuid.New()

	repo.EXPECT().GetCopy(gomock.Any(), copyID).
		Return(&catalog.Copy{ID: copyID, Status: catalog.CopyBorrowed}, nil)

	available, err := svc.IsCopyAvailable(context.Background(), copyID)
	require.NoError(t, err)
	assert.False(t, available)

	repo.EXPECT().GetCopy(gomock.Any(), copyID).Return(nil, catalog.ErrCopyNotFound)

	_, err = svc.IsCopyAvailable(context.Background(), copyID)
	require.ErrorIs(t, err, catalog.ErrCopyNotFound)
}

func TestService_MarkCopy(t *testing.T) {
	copyID := uuid.New()

	t.Run("Lost", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().UpdateCopyStatus(gomock.Any(), copyID, catalog.CopyLost).Return(nil)

		require.NoError(t, svc.MarkCopy(context.Background(), copyID, catalog.CopyLost))
	})

	t.Run("AllocationStatusRejected", func(t *testing.T) {
		svc, _ := newService(t)

		err := svc.MarkCopy(context.Background(), copyID, catalog.CopyBorrowed)
		require.ErrorIs(t, err, catalog.ErrInvalidMark)
	})
}

func TestService_ResolveCopyByQR(t *testing.T) {
	svc, repo := newService(t)

	copyID := uuid.New()
	want := &catalog.Copy{ID: copyID, Status: catalog.CopyAvailable}

	repo.EXPECT().GetCopy(gomock.Any(), copyID).Return(want, nil)

	got, err := svc.ResolveCopyByQR(context.Background(), want.QR())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.ResolveCopyByQR(context.Background(), "garbage")
	require.ErrorIs(t, err, catalog.ErrCopyNotFound)
}

func TestService_Import(t *testing.T) {
	rows := []catalog.ImportRow{
		{ISBN: "9780140449136", Title: "The Odyssey", Author: "Homer", Units: 2},
		{ISBN: "9789722040890", Title: "Memorial do Convento", Author: "José Saramago", Units: 1},
	}

	t.Run("Success", func(t *testing.T) {
		svc, repo := newService(t)

		ctrl := gomock.NewController(t)
		itx := catalog.NewMockImportTx(ctrl)

		repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)
		itx.EXPECT().UpsertBook(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, book *catalog.Book) error {
				book.ID = uuid.New()
				return nil
			}).Times(2)
		itx.EXPECT().CreateCopies(gomock.Any(), gomock.Any(), 2).
			Return([]*catalog.Copy{{ID: uuid.New()}, {ID: uuid.New()}}, nil)
		itx.EXPECT().CreateCopies(gomock.Any(), gomock.Any(), 1).
			Return([]*catalog.Copy{{ID: uuid.New()}}, nil)
		itx.EXPECT().Commit().Return(nil)
		itx.EXPECT().Rollback().Return(nil)

		result, err := svc.Import(context.Background(), rows)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Books)
		assert.Equal(t, 3, result.Copies)
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		svc, repo := newService(t)

		ctrl := gomock.NewController(t)
		itx := catalog.NewMockImportTx(ctrl)

		repo.EXPECT().BeginImport(gomock.Any()).Return(itx, nil)
		itx.EXPECT().UpsertBook(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
		itx.EXPECT().Rollback().Return(nil)

		_, err := svc.Import(context.Background(), rows)
		require.Error(t, err)
	})

	t.Run("EmptyManifest", func(t *testing.T) {
		svc, _ := newService(t)

		result, err := svc.Import(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, result.Books)
	})
}
