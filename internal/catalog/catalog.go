package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/qr"
)

var (
	ErrBookNotFound = errors.New("book not found")
	ErrCopyNotFound = errors.New("copy not found")
	ErrInvalidBook  = errors.New("isbn and title are required")
	ErrInvalidMark  = errors.New("copies can only be marked lost, damaged or cleared")
)

// CopyStatus is the availability state of one physical copy.
type CopyStatus string

const (
	CopyAvailable CopyStatus = "available"
	CopyBorrowed  CopyStatus = "borrowed"
	CopyReserved  CopyStatus = "reserved"
	CopyLost      CopyStatus = "lost"
	CopyDamaged   CopyStatus = "damaged"
	CopyCleared   CopyStatus = "cleared"
)

// Book is a catalog title. Books themselves are not borrowable; their
// copies are.
type Book struct {
	ID        uuid.UUID
	ISBN      string
	Title     string
	Author    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Copy is one physical, individually trackable unit of a Book.
type Copy struct {
	ID        uuid.UUID
	BookID    uuid.UUID
	Status    CopyStatus
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// QR returns the label token for the copy. It is derived from the id on
// every call, never stored.
func (c *Copy) QR() string {
	return qr.EncodeCopy(c.ID)
}
