package cart_test

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
	"github.com/soaresmg/liber/internal/cart"
	"github.com/soaresmg/liber/internal/catalog"
)

func newService(t *testing.T) (*cart.Service, *cart.MockRepository, *cart.MockCatalog, *cart.MockRequester) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := cart.NewMockRepository(ctrl)
	books := cart.NewMockCatalog(ctrl)
	requester := cart.NewMockRequester(ctrl)

	return cart.NewService(repo, books, requester), repo, books, requester
}

func TestService_Add(t *testing.T) {
	memberID := uuid.New()
	bookID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo, books, _ := newService(t)

		books.EXPECT().Exists(gomock.Any(), bookID).Return(true, nil)
		books.EXPECT().HasAvailableCopy(gomock.Any(), bookID).Return(true, nil)
		repo.EXPECT().AddItem(gomock.Any(), memberID, bookID).
			Return(&cart.Item{ID: uuid.New(), BookID: bookID, AddedAt: time.Now()}, nil)

		item, err := svc.Add(context.Background(), memberID, bookID)
		require.NoError(t, err)
		assert.Equal(t, bookID, item.BookID)
	})

	t.Run("UnknownBook", func(t *testing.T) {
		svc, _, books, _ := newService(t)

		books.EXPECT().Exists(gomock.Any(), bookID).Return(false, nil)

		_, err := svc.Add(context.Background(), memberID, bookID)
		require.ErrorIs(t, err, catalog.ErrBookNotFound)
	})

	t.Run("NoAvailableCopies", func(t *testing.T) {
		svc, _, books, _ := newService(t)

		books.EXPECT().Exists(gomock.Any(), bookID).Return(true, nil)
		books.EXPECT().HasAvailableCopy(gomock.Any(), bookID).Return(false, nil)

		_, err := svc.Add(context.Background(), memberID, bookID)
		require.ErrorIs(t, err, borrow.ErrBookUnavailable)
	})

	t.Run("AlreadyInCart", func(t *testing.T) {
		svc, repo, books, _ := newService(t)

		books.EXPECT().Exists(gomock.Any(), bookID).Return(true, nil)
		books.EXPECT().HasAvailableCopy(gomock.Any(), bookID).Return(true, nil)
		repo.EXPECT().AddItem(gomock.Any(), memberID, bookID).Return(nil, cart.ErrDuplicateItem)

		_, err := svc.Add(context.Background(), memberID, bookID)
		require.ErrorIs(t, err, cart.ErrDuplicateItem)
	})
}

func TestService_Checkout(t *testing.T) {
	memberID := uuid.New()
	bookA := uuid.New()
	bookB := uuid.New()

	filled := func() *cart.Cart {
		return &cart.Cart{
			ID:       uuid.New(),
			MemberID: memberID,
			Items: []*cart.Item{
				{ID: uuid.New(), BookID: bookA},
				{ID: uuid.New(), BookID: bookB},
			},
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, repo, _, requester := newService(t)

		created := []*borrow.Request{
			{ID: uuid.New(), BookID: bookA, Status: borrow.StatusPending},
			{ID: uuid.New(), BookID: bookB, Status: borrow.StatusPending},
		}

		repo.EXPECT().GetCart(gomock.Any(), memberID).Return(filled(), nil)
		requester.EXPECT().Create(gomock.Any(), memberID, []uuid.UUID{bookA, bookB}, "pickup friday").
			Return(created, nil)
		repo.EXPECT().Clear(gomock.Any(), memberID).Return(true, nil)

		reqs, err := svc.Checkout(context.Background(), memberID, "pickup friday")
		require.NoError(t, err)
		assert.Equal(t, created, reqs)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		svc, repo, _, _ := newService(t)

		repo.EXPECT().GetCart(gomock.Any(), memberID).
			Return(&cart.Cart{ID: uuid.New(), MemberID: memberID}, nil)

		_, err := svc.Checkout(context.Background(), memberID, "")
		require.ErrorIs(t, err, cart.ErrEmptyCart)
	})

	t.Run("CreateFailsCartKept", func(t *testing.T) {
		svc, repo, _, requester := newService(t)

		repo.EXPECT().GetCart(gomock.Any(), memberID).Return(filled(), nil)
		requester.EXPECT().Create(gomock.Any(), memberID, gomock.Any(), "").
			Return(nil, borrow.ErrBookUnavailable)
		// no Clear expectation: the cart must stay intact for a retry

		_, err := svc.Checkout(context.Background(), memberID, "")
		require.ErrorIs(t, err, borrow.ErrBookUnavailable)
	})
}

func TestService_Remove(t *testing.T) {
	svc, repo, _, _ := newService(t)

	memberID := uuid.New()
	itemID := uuid.New()

	repo.EXPECT().RemoveItem(gomock.Any(), memberID, itemID).Return(false, nil)

	found, err := svc.Remove(context.Background(), memberID, itemID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_Get_Error(t *testing.T) {
	svc, repo, _, _ := newService(t)

	memberID := uuid.New()

	repo.EXPECT().GetCart(gomock.Any(), memberID).Return(nil, errors.New("db error"))

	_, err := svc.Get(context.Background(), memberID)
	require.Error(t, err)
}
