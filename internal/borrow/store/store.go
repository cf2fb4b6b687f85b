package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRequestColumns = `
	r.id, r.member_id, r.staff_id, r.book_id, r.copy_id, r.status, r.notes,
	r.created_at, r.confirmed_at, r.borrowed_at, r.due_at, r.returned_at
`

func scanRequest(s scanner) (*borrow.Request, error) {
	var req borrow.Request

	var statusStr string

	var notes sql.NullString

	if err := s.Scan(
		&req.ID, &req.MemberID, &req.StaffID, &req.BookID, &req.CopyID, &statusStr, &notes,
		&req.CreatedAt, &req.ConfirmedAt, &req.BorrowedAt, &req.DueAt, &req.ReturnedAt,
	); err != nil {
		return nil, err
	}

	req.Status = borrow.Status(statusStr)
	req.Notes = notes.String

	return &req, nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*borrow.Request, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM borrow_requests r WHERE r.id = $1`

	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, borrow.ErrNotFound
		}

		return nil, fmt.Errorf("getting request: %w", err)
	}

	return req, nil
}

func (s *Store) ListRequests(ctx context.Context, filter borrow.ListFilter) ([]*borrow.Request, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM borrow_requests r WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND r.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.MemberID != nil {
		query += fmt.Sprintf(" AND r.member_id = $%d", argIdx)

		args = append(args, *filter.MemberID)
		argIdx++
	}

	query += " ORDER BY r.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var reqs []*borrow.Request

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}

		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

type borrowTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (borrow.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning borrow tx: %w", err)
	}

	return &borrowTx{tx: tx}, nil
}

func (btx *borrowTx) Commit() error   { return btx.tx.Commit() }
func (btx *borrowTx) Rollback() error { return btx.tx.Rollback() }

func (btx *borrowTx) BookExists(ctx context.Context, bookID uuid.UUID) (bool, error) {
	var exists bool

	err := btx.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, bookID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking book: %w", err)
	}

	return exists, nil
}

func (btx *borrowTx) HasAvailableCopy(ctx context.Context, bookID uuid.UUID) (bool, error) {
	var available bool

	query := `SELECT EXISTS (SELECT 1 FROM book_copies WHERE book_id = $1 AND status = $2)`

	err := btx.tx.QueryRowContext(ctx, query, bookID, catalog.CopyAvailable).Scan(&available)
	if err != nil {
		return false, fmt.Errorf("checking availability: %w", err)
	}

	return available, nil
}

func (btx *borrowTx) CreateRequests(ctx context.Context, reqs []*borrow.Request) error {
	query := `
		INSERT INTO borrow_requests (id, member_id, book_id, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	for _, req := range reqs {
		err := btx.tx.QueryRowContext(ctx, query,
			req.ID,
			req.MemberID,
			req.BookID,
			req.Status,
			req.Notes,
		).Scan(&req.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
	}

	return nil
}

func (btx *borrowTx) GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*borrow.Request, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM borrow_requests r WHERE r.id = $1 FOR UPDATE`

	req, err := scanRequest(btx.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, borrow.ErrNotFound
		}

		return nil, fmt.Errorf("locking request: %w", err)
	}

	return req, nil
}

func (btx *borrowTx) FindActiveRequestByCopy(ctx context.Context, copyID uuid.UUID) (*borrow.Request, error) {
	query := `SELECT ` + selectRequestColumns + `
		FROM borrow_requests r
		WHERE r.copy_id = $1 AND r.status IN ($2, $3)
		FOR UPDATE`

	req, err := scanRequest(btx.tx.QueryRowContext(ctx, query, copyID, borrow.StatusBorrowed, borrow.StatusOverdue))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, borrow.ErrNoActiveLoan
		}

		return nil, fmt.Errorf("finding active request: %w", err)
	}

	return req, nil
}

func (btx *borrowTx) UpdateRequest(ctx context.Context, req *borrow.Request) error {
	query := `
		UPDATE borrow_requests
		SET staff_id = $1, copy_id = $2, status = $3, notes = $4,
			confirmed_at = $5, borrowed_at = $6, due_at = $7, returned_at = $8
		WHERE id = $9
	`

	_, err := btx.tx.ExecContext(ctx, query,
		req.StaffID,
		req.CopyID,
		req.Status,
		req.Notes,
		req.ConfirmedAt,
		req.BorrowedAt,
		req.DueAt,
		req.ReturnedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}

	return nil
}

func (btx *borrowTx) GetCopy(ctx context.Context, copyID uuid.UUID) (*catalog.Copy, error) {
	query := `SELECT c.id, c.book_id, c.status, c.created_at, c.updated_at FROM book_copies c WHERE c.id = $1`

	var copy catalog.Copy

	var statusStr string

	err := btx.tx.QueryRowContext(ctx, query, copyID).
		Scan(&copy.ID, &copy.BookID, &statusStr, &copy.CreatedAt, &copy.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrCopyNotFound
		}

		return nil, fmt.Errorf("getting copy: %w", err)
	}

	copy.Status = catalog.CopyStatus(statusStr)

	return &copy, nil
}

// AssignCopy is the double-allocation guard: one conditional update,
// with zero rows affected meaning someone else got the copy first.
func (btx *borrowTx) AssignCopy(ctx context.Context, copyID uuid.UUID) error {
	return btx.swapCopyStatus(ctx, copyID, catalog.CopyAvailable, catalog.CopyBorrowed)
}

func (btx *borrowTx) ReleaseCopy(ctx context.Context, copyID uuid.UUID) error {
	return btx.swapCopyStatus(ctx, copyID, catalog.CopyBorrowed, catalog.CopyAvailable)
}

func (btx *borrowTx) swapCopyStatus(ctx context.Context, copyID uuid.UUID, from, to catalog.CopyStatus) error {
	query := `
		UPDATE book_copies
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	res, err := btx.tx.ExecContext(ctx, query, to, copyID, from)
	if err != nil {
		return fmt.Errorf("updating copy status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating copy status: %w", err)
	}

	if affected == 0 {
		return borrow.ErrCopyUnavailable
	}

	return nil
}

func (btx *borrowTx) OpenLoan(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO book_transactions (copy_id, member_id, staff_id, borrowed_at, due_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`

	err := btx.tx.QueryRowContext(ctx, query,
		entry.CopyID,
		entry.MemberID,
		entry.StaffID,
		entry.BorrowedAt,
		entry.DueAt,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("opening loan: %w", err)
	}

	return nil
}

func (btx *borrowTx) CloseLoan(ctx context.Context, copyID uuid.UUID, returnedAt time.Time) error {
	query := `
		UPDATE book_transactions
		SET returned_at = $1, status = $2
		WHERE copy_id = $3 AND returned_at IS NULL
	`

	res, err := btx.tx.ExecContext(ctx, query, returnedAt, ledger.StatusReturned, copyID)
	if err != nil {
		return fmt.Errorf("closing loan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("closing loan: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("closing loan: %w", borrow.ErrNoActiveLoan)
	}

	return nil
}
