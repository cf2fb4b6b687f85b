package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectEntryColumns = `
	l.id, l.copy_id, l.member_id, l.staff_id, l.borrowed_at, l.due_at, l.returned_at, l.status, l.created_at
`

func (s *Store) ListByMember(ctx context.Context, memberID uuid.UUID) ([]*ledger.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM book_transactions l
		WHERE l.member_id = $1
		ORDER BY l.borrowed_at DESC`

	return s.list(ctx, query, memberID)
}

func (s *Store) ListByCopy(ctx context.Context, copyID uuid.UUID) ([]*ledger.Entry, error) {
	query := `SELECT ` + selectEntryColumns + `
		FROM book_transactions l
		WHERE l.copy_id = $1
		ORDER BY l.borrowed_at DESC`

	return s.list(ctx, query, copyID)
}

func (s *Store) list(ctx context.Context, query string, arg any) ([]*ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	now := time.Now()

	var entries []*ledger.Entry

	for rows.Next() {
		var e ledger.Entry

		var statusStr string

		if err := rows.Scan(
			&e.ID, &e.CopyID, &e.MemberID, &e.StaffID,
			&e.BorrowedAt, &e.DueAt, &e.ReturnedAt, &statusStr, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		e.Status = ledger.Status(statusStr)

		// Open entries past their due date read as overdue; the stored
		// status only changes when the loan closes.
		if e.ReturnedAt == nil && e.Status == ledger.StatusBorrowed && now.After(e.DueAt) {
			e.Status = ledger.StatusOverdue
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
