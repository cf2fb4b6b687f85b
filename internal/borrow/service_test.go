package borrow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/ledger"
)

const loanPeriod = 30 * 24 * time.Hour

func newService(t *testing.T) (*borrow.Service, *borrow.MockRepository, *borrow.MockTx) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := borrow.NewMockRepository(ctrl)
	tx := borrow.NewMockTx(ctrl)

	return borrow.NewService(repo, loanPeriod), repo, tx
}

func TestService_Create(t *testing.T) {
	memberID := uuid.New()
	bookA := uuid.New()
	bookB := uuid.New()

	t.Run("AllBooksAvailable", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().BookExists(gomock.Any(), bookA).Return(true, nil)
		tx.EXPECT().HasAvailableCopy(gomock.Any(), bookA).Return(true, nil)
		tx.EXPECT().BookExists(gomock.Any(), bookB).Return(true, nil)
		tx.EXPECT().HasAvailableCopy(gomock.Any(), bookB).Return(true, nil)
		tx.EXPECT().CreateRequests(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		reqs, err := svc.Create(context.Background(), memberID, []uuid.UUID{bookA, bookB}, "for class")
		require.NoError(t, err)
		require.Len(t, reqs, 2)

		for _, req := range reqs {
			assert.Equal(t, borrow.StatusPending, req.Status)
			assert.Equal(t, memberID, req.MemberID)
			assert.Nil(t, req.CopyID)
			assert.Equal(t, "BORROW-"+req.ID.String(), req.QR())
		}
	})

	t.Run("SecondBookUnavailableAbortsBatch", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().BookExists(gomock.Any(), bookA).Return(true, nil)
		tx.EXPECT().HasAvailableCopy(gomock.Any(), bookA).Return(true, nil)
		tx.EXPECT().BookExists(gomock.Any(), bookB).Return(true, nil)
		tx.EXPECT().HasAvailableCopy(gomock.Any(), bookB).Return(false, nil)
		tx.EXPECT().Rollback().Return(nil)

		reqs, err := svc.Create(context.Background(), memberID, []uuid.UUID{bookA, bookB}, "")
		require.ErrorIs(t, err, borrow.ErrBookUnavailable)
		assert.ErrorContains(t, err, bookB.String())
		assert.Nil(t, reqs)
	})

	t.Run("UnknownBook", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().BookExists(gomock.Any(), bookA).Return(false, nil)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Create(context.Background(), memberID, []uuid.UUID{bookA}, "")
		require.ErrorIs(t, err, catalog.ErrBookNotFound)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.Create(context.Background(), memberID, nil, "")
		require.ErrorIs(t, err, borrow.ErrNoBooks)
	})
}

func TestService_Confirm(t *testing.T) {
	requestID := uuid.New()
	bookID := uuid.New()
	copyID := uuid.New()
	staffID := uuid.New()
	memberID := uuid.New()

	pending := func() *borrow.Request {
		return &borrow.Request{
			ID:        requestID,
			MemberID:  memberID,
			BookID:    bookID,
			Status:    borrow.StatusPending,
			CreatedAt: time.Now().Add(-time.Hour),
		}
	}

	availableCopy := &catalog.Copy{ID: copyID, BookID: bookID, Status: catalog.CopyAvailable}

	t.Run("Success", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(pending(), nil)
		tx.EXPECT().GetCopy(gomock.Any(), copyID).Return(availableCopy, nil)
		tx.EXPECT().AssignCopy(gomock.Any(), copyID).Return(nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().OpenLoan(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *ledger.Entry) error {
				assert.Equal(t, copyID, entry.CopyID)
				assert.Equal(t, memberID, entry.MemberID)
				assert.Equal(t, ledger.StatusBorrowed, entry.Status)
				return nil
			})
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		req, err := svc.Confirm(context.Background(), requestID, copyID, staffID)
		require.NoError(t, err)

		assert.Equal(t, borrow.StatusBorrowed, req.Status)
		require.NotNil(t, req.CopyID)
		assert.Equal(t, copyID, *req.CopyID)
		require.NotNil(t, req.ConfirmedAt)
		require.NotNil(t, req.DueAt)
		assert.Equal(t, req.ConfirmedAt.Add(loanPeriod), *req.DueAt)
	})

	t.Run("AlreadyConfirmed", func(t *testing.T) {
		svc, repo, tx := newService(t)

		confirmed := pending()
		confirmed.Status = borrow.StatusBorrowed

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(confirmed, nil)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Confirm(context.Background(), requestID, copyID, staffID)
		require.ErrorIs(t, err, borrow.ErrNotPending)
	})

	t.Run("CopyTakenConcurrently", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(pending(), nil)
		tx.EXPECT().GetCopy(gomock.Any(), copyID).Return(availableCopy, nil)
		tx.EXPECT().AssignCopy(gomock.Any(), copyID).Return(borrow.ErrCopyUnavailable)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Confirm(context.Background(), requestID, copyID, staffID)
		require.ErrorIs(t, err, borrow.ErrCopyUnavailable)
	})

	t.Run("CopyOfDifferentBook", func(t *testing.T) {
		svc, repo, tx := newService(t)

		otherCopy := &catalog.Copy{ID: copyID, BookID: uuid.New(), Status: catalog.CopyAvailable}

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(pending(), nil)
		tx.EXPECT().GetCopy(gomock.Any(), copyID).Return(otherCopy, nil)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Confirm(context.Background(), requestID, copyID, staffID)
		require.ErrorIs(t, err, borrow.ErrWrongBook)
	})

	t.Run("UnknownRequest", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(nil, borrow.ErrNotFound)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Confirm(context.Background(), requestID, copyID, staffID)
		require.ErrorIs(t, err, borrow.ErrNotFound)
	})
}

func TestService_Reject(t *testing.T) {
	requestID := uuid.New()
	staffID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := &borrow.Request{ID: requestID, Status: borrow.StatusPending, Notes: "member note"}

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(req, nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		got, err := svc.Reject(context.Background(), requestID, staffID, "title withdrawn")
		require.NoError(t, err)

		assert.Equal(t, borrow.StatusRejected, got.Status)
		assert.Equal(t, "member note\nrejected: title withdrawn", got.Notes)
		require.NotNil(t, got.StaffID)
		assert.Equal(t, staffID, *got.StaffID)
	})

	t.Run("NotPending", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := &borrow.Request{ID: requestID, Status: borrow.StatusCancelled}

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(req, nil)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Reject(context.Background(), requestID, staffID, "")
		require.ErrorIs(t, err, borrow.ErrNotPending)
	})
}

func TestService_Cancel(t *testing.T) {
	requestID := uuid.New()
	memberID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := &borrow.Request{ID: requestID, MemberID: memberID, Status: borrow.StatusPending}

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(req, nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		got, err := svc.Cancel(context.Background(), requestID, memberID)
		require.NoError(t, err)
		assert.Equal(t, borrow.StatusCancelled, got.Status)
	})

	t.Run("OtherMembersRequest", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := &borrow.Request{ID: requestID, MemberID: uuid.New(), Status: borrow.StatusPending}

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetRequestForUpdate(gomock.Any(), requestID).Return(req, nil)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Cancel(context.Background(), requestID, memberID)
		require.ErrorIs(t, err, borrow.ErrNotOwner)
	})
}

func TestService_Return(t *testing.T) {
	copyID := uuid.New()

	activeRequest := func(due time.Time) *borrow.Request {
		borrowed := due.Add(-loanPeriod)

		return &borrow.Request{
			ID:         uuid.New(),
			MemberID:   uuid.New(),
			BookID:     uuid.New(),
			CopyID:     &copyID,
			Status:     borrow.StatusBorrowed,
			BorrowedAt: &borrowed,
			DueAt:      &due,
		}
	}

	t.Run("OnTime", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := activeRequest(time.Now().Add(24 * time.Hour))

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().FindActiveRequestByCopy(gomock.Any(), copyID).Return(req, nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().ReleaseCopy(gomock.Any(), copyID).Return(nil)
		tx.EXPECT().CloseLoan(gomock.Any(), copyID, gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		got, err := svc.Return(context.Background(), copyID)
		require.NoError(t, err)

		assert.Equal(t, borrow.StatusReturned, got.Status)
		require.NotNil(t, got.ReturnedAt)
	})

	t.Run("Overdue", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := activeRequest(time.Now().Add(-5 * 24 * time.Hour))
		req.Status = borrow.StatusOverdue

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().FindActiveRequestByCopy(gomock.Any(), copyID).Return(req, nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().ReleaseCopy(gomock.Any(), copyID).Return(nil)
		tx.EXPECT().CloseLoan(gomock.Any(), copyID, gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		got, err := svc.Return(context.Background(), copyID)
		require.NoError(t, err)
		assert.Equal(t, borrow.StatusOverdueReturned, got.Status)
	})

	t.Run("NoActiveLoan", func(t *testing.T) {
		svc, repo, tx := newService(t)

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().FindActiveRequestByCopy(gomock.Any(), copyID).Return(nil, borrow.ErrNoActiveLoan)
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Return(context.Background(), copyID)
		require.ErrorIs(t, err, borrow.ErrNoActiveLoan)
	})

	t.Run("ReleaseFails", func(t *testing.T) {
		svc, repo, tx := newService(t)

		req := activeRequest(time.Now().Add(24 * time.Hour))

		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().FindActiveRequestByCopy(gomock.Any(), copyID).Return(req, nil)
		tx.EXPECT().UpdateRequest(gomock.Any(), req).Return(nil)
		tx.EXPECT().ReleaseCopy(gomock.Any(), copyID).Return(errors.New("db error"))
		tx.EXPECT().Rollback().Return(nil)

		_, err := svc.Return(context.Background(), copyID)
		require.Error(t, err)
	})
}

func TestService_ResolveByQR(t *testing.T) {
	svc, repo, _ := newService(t)

	requestID := uuid.New()
	want := &borrow.Request{ID: requestID, Status: borrow.StatusPending}

	repo.EXPECT().GetRequest(gomock.Any(), requestID).Return(want, nil)

	got, err := svc.ResolveByQR(context.Background(), "BORROW-"+requestID.String())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.ResolveByQR(context.Background(), "COPY-"+requestID.String())
	require.ErrorIs(t, err, borrow.ErrNotFound)
}
