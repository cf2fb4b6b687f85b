// Package ledger is the append-only audit record of borrow/return
// pairings. Entries are opened and closed inside the borrow unit of
// work; this package only models them and serves reads.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status values match what gets printed on circulation reports.
type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
	StatusOverdue  Status = "OVERDUE"
)

// Entry records one loan of one copy. At most one open entry (no
// ReturnedAt) exists per copy at a time.
type Entry struct {
	ID         uuid.UUID
	CopyID     uuid.UUID
	MemberID   uuid.UUID
	StaffID    uuid.UUID
	BorrowedAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
	Status     Status
	CreatedAt  time.Time
}
