package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/soaresmg/liber/internal/cart"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

// GetCart returns the member's cart with its items, creating the cart
// row on first access.
func (s *Store) GetCart(ctx context.Context, memberID uuid.UUID) (*cart.Cart, error) {
	c, err := s.upsertCart(ctx, memberID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT i.id, i.book_id, i.added_at
		FROM cart_items i
		WHERE i.cart_id = $1
		ORDER BY i.added_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item cart.Item

		if err := rows.Scan(&item.ID, &item.BookID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}

		c.Items = append(c.Items, &item)
	}

	return c, rows.Err()
}

func (s *Store) AddItem(ctx context.Context, memberID, bookID uuid.UUID) (*cart.Item, error) {
	c, err := s.upsertCart(ctx, memberID)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO cart_items (cart_id, book_id, added_at)
		VALUES ($1, $2, NOW())
		RETURNING id, book_id, added_at
	`

	var item cart.Item

	err = s.db.QueryRowContext(ctx, query, c.ID, bookID).Scan(&item.ID, &item.BookID, &item.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, cart.ErrDuplicateItem
		}

		return nil, fmt.Errorf("adding cart item: %w", err)
	}

	return &item, nil
}

func (s *Store) RemoveItem(ctx context.Context, memberID, itemID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM cart_items i
		USING carts c
		WHERE i.id = $1 AND i.cart_id = c.id AND c.member_id = $2
	`

	res, err := s.db.ExecContext(ctx, query, itemID, memberID)
	if err != nil {
		return false, fmt.Errorf("removing cart item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing cart item: %w", err)
	}

	return affected > 0, nil
}

func (s *Store) Clear(ctx context.Context, memberID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM cart_items i
		USING carts c
		WHERE i.cart_id = c.id AND c.member_id = $1
	`

	res, err := s.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return false, fmt.Errorf("clearing cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clearing cart: %w", err)
	}

	return affected > 0, nil
}

func (s *Store) upsertCart(ctx context.Context, memberID uuid.UUID) (*cart.Cart, error) {
	query := `
		INSERT INTO carts (member_id, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (member_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, member_id, created_at, updated_at
	`

	var c cart.Cart

	err := s.db.QueryRowContext(ctx, query, memberID).
		Scan(&c.ID, &c.MemberID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting cart: %w", err)
	}

	return &c, nil
}
