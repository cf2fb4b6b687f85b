// Package cart is the staging area for books a member intends to
// request. Carts are persisted per member so they survive restarts, and
// a checkout converts the whole cart into borrow requests at once.
package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrDuplicateItem = errors.New("book is already in the cart")
)

type Cart struct {
	ID        uuid.UUID
	MemberID  uuid.UUID
	Items     []*Item
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Item is one candidate book. It names a title, never a specific copy;
// copies are bound only when staff confirm the resulting request.
type Item struct {
	ID      uuid.UUID
	BookID  uuid.UUID
	AddedAt time.Time
}
