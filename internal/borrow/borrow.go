package borrow

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/qr"
)

var (
	ErrNotFound        = errors.New("borrow request not found")
	ErrNotPending      = errors.New("borrow request is not pending")
	ErrCopyUnavailable = errors.New("copy is not available")
	ErrBookUnavailable = errors.New("book has no available copies")
	ErrNoActiveLoan    = errors.New("no active loan for copy")
	ErrNotOwner        = errors.New("request belongs to another member")
	ErrWrongBook       = errors.New("copy belongs to a different book")
	ErrNoBooks         = errors.New("at least one book is required")
)

// Status is the lifecycle state of a borrow request.
//
// pending ─┬─> borrowed ─┬─> returned
//          │             ├─> overdue ─> overdue_returned
//          ├─> rejected  └─> overdue_returned
//          └─> cancelled
type Status string

const (
	StatusPending         Status = "pending"
	StatusBorrowed        Status = "borrowed"
	StatusOverdue         Status = "overdue"
	StatusReturned        Status = "returned"
	StatusOverdueReturned Status = "overdue_returned"
	StatusRejected        Status = "rejected"
	StatusCancelled       Status = "cancelled"
)

// Active reports whether the request currently holds a copy.
func (s Status) Active() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// Request is one member's claim on one book. A copy is bound to it only
// at confirmation; CopyID is non-nil exactly in the post-confirmation
// states (borrowed, overdue, returned, overdue_returned).
type Request struct {
	ID       uuid.UUID
	MemberID uuid.UUID
	StaffID  *uuid.UUID
	BookID   uuid.UUID
	CopyID   *uuid.UUID
	Status   Status
	Notes    string

	CreatedAt   time.Time
	ConfirmedAt *time.Time
	BorrowedAt  *time.Time
	DueAt       *time.Time
	ReturnedAt  *time.Time
}

// QR returns the slip token for the request, derived from the id.
func (r *Request) QR() string {
	return qr.EncodeBorrow(r.ID)
}

// Overdue reports whether t is past the request's due date. A missing
// due date counts as never overdue.
func (r *Request) Overdue(t time.Time) bool {
	return r.DueAt != nil && t.After(*r.DueAt)
}
