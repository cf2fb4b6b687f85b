package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/reconciler"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListActive(ctx context.Context) ([]*reconciler.Item, error) {
	// LEFT JOIN so a request whose copy row went missing still comes
	// back and gets flagged instead of silently disappearing.
	query := `
		SELECT r.id, r.status, r.due_at, r.returned_at, r.copy_id, COALESCE(c.status, '')
		FROM borrow_requests r
		LEFT JOIN book_copies c ON c.id = r.copy_id
		WHERE r.status IN ($1, $2)
		ORDER BY r.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, borrow.StatusBorrowed, borrow.StatusOverdue)
	if err != nil {
		return nil, fmt.Errorf("listing active requests: %w", err)
	}
	defer rows.Close()

	var items []*reconciler.Item

	for rows.Next() {
		var item reconciler.Item

		var statusStr, copyStatusStr string

		if err := rows.Scan(&item.RequestID, &statusStr, &item.DueAt, &item.ReturnedAt, &item.CopyID, &copyStatusStr); err != nil {
			return nil, fmt.Errorf("scanning active request: %w", err)
		}

		item.Status = borrow.Status(statusStr)
		item.CopyStatus = catalog.CopyStatus(copyStatusStr)

		items = append(items, &item)
	}

	return items, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, requestID uuid.UUID, from, to borrow.Status) (bool, error) {
	query := `
		UPDATE borrow_requests
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	res, err := s.db.ExecContext(ctx, query, to, requestID, from)
	if err != nil {
		return false, fmt.Errorf("updating request status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating request status: %w", err)
	}

	return affected > 0, nil
}
