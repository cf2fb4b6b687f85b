package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=cart
type Repository interface {
	GetCart(ctx context.Context, memberID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, memberID, bookID uuid.UUID) (*Item, error)
	RemoveItem(ctx context.Context, memberID, itemID uuid.UUID) (bool, error)
	Clear(ctx context.Context, memberID uuid.UUID) (bool, error)
}

// Catalog answers the pre-flight checks when a book is added. They are
// best-effort UX checks, not reservations: a copy can still be taken by
// someone else before checkout.
type Catalog interface {
	Exists(ctx context.Context, bookID uuid.UUID) (bool, error)
	HasAvailableCopy(ctx context.Context, bookID uuid.UUID) (bool, error)
}

// Requester turns cart contents into borrow requests at checkout.
type Requester interface {
	Create(ctx context.Context, memberID uuid.UUID, bookIDs []uuid.UUID, notes string) ([]*borrow.Request, error)
}

type Service struct {
	repo      Repository
	catalog   Catalog
	requester Requester
}

func NewService(repo Repository, catalog Catalog, requester Requester) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		requester: requester,
	}
}

// Get returns the member's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, memberID uuid.UUID) (*Cart, error) {
	return s.repo.GetCart(ctx, memberID)
}

func (s *Service) Add(ctx context.Context, memberID, bookID uuid.UUID) (*Item, error) {
	exists, err := s.catalog.Exists(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("checking book: %w", err)
	}

	if !exists {
		return nil, catalog.ErrBookNotFound
	}

	available, err := s.catalog.HasAvailableCopy(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("checking availability: %w", err)
	}

	if !available {
		return nil, borrow.ErrBookUnavailable
	}

	return s.repo.AddItem(ctx, memberID, bookID)
}

func (s *Service) Remove(ctx context.Context, memberID, itemID uuid.UUID) (bool, error) {
	return s.repo.RemoveItem(ctx, memberID, itemID)
}

func (s *Service) Clear(ctx context.Context, memberID uuid.UUID) (bool, error) {
	return s.repo.Clear(ctx, memberID)
}

// Checkout converts the cart into one borrow request per book. The cart
// is cleared only after every request was created; on any failure it is
// left untouched so the member can retry.
func (s *Service) Checkout(ctx context.Context, memberID uuid.UUID, notes string) ([]*borrow.Request, error) {
	c, err := s.repo.GetCart(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	bookIDs := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		bookIDs = append(bookIDs, item.BookID)
	}

	reqs, err := s.requester.Create(ctx, memberID, bookIDs, notes)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Clear(ctx, memberID); err != nil {
		return nil, fmt.Errorf("clearing cart: %w", err)
	}

	return reqs, nil
}
