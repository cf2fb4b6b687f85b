package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/catalog"
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

const selectBookColumns = `b.id, b.isbn, b.title, b.author, b.created_at, b.updated_at`

func scanBook(s scanner) (*catalog.Book, error) {
	var book catalog.Book

	var author sql.NullString

	if err := s.Scan(&book.ID, &book.ISBN, &book.Title, &author, &book.CreatedAt, &book.UpdatedAt); err != nil {
		return nil, err
	}

	book.Author = author.String

	return &book, nil
}

const selectCopyColumns = `c.id, c.book_id, c.status, c.created_at, c.updated_at`

func scanCopy(s scanner) (*catalog.Copy, error) {
	var copy catalog.Copy

	var statusStr string

	if err := s.Scan(&copy.ID, &copy.BookID, &statusStr, &copy.CreatedAt, &copy.UpdatedAt); err != nil {
		return nil, err
	}

	copy.Status = catalog.CopyStatus(statusStr)

	return &copy, nil
}

func (s *Store) CreateBook(ctx context.Context, book *catalog.Book) error {
	query := `
		INSERT INTO books (isbn, title, author, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, book.ISBN, book.Title, book.Author).
		Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating book: %w", err)
	}

	return nil
}

func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*catalog.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books b WHERE b.id = $1`

	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrBookNotFound
		}

		return nil, fmt.Errorf("getting book: %w", err)
	}

	return book, nil
}

func (s *Store) ListBooks(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books b WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.ISBN != nil {
		query += fmt.Sprintf(" AND b.isbn = $%d", argIdx)

		args = append(args, *filter.ISBN)
		argIdx++
	}

	if filter.Title != nil {
		query += fmt.Sprintf(" AND b.title ILIKE '%%' || $%d || '%%'", argIdx)

		args = append(args, *filter.Title)
		argIdx++
	}

	query += " ORDER BY b.title ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []*catalog.Book

	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}

		books = append(books, book)
	}

	return books, rows.Err()
}

func (s *Store) BookExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking book: %w", err)
	}

	return exists, nil
}

func (s *Store) GetCopy(ctx context.Context, id uuid.UUID) (*catalog.Copy, error) {
	query := `SELECT ` + selectCopyColumns + ` FROM book_copies c WHERE c.id = $1`

	copy, err := scanCopy(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrCopyNotFound
		}

		return nil, fmt.Errorf("getting copy: %w", err)
	}

	return copy, nil
}

func (s *Store) ListCopies(ctx context.Context, bookID uuid.UUID) ([]*catalog.Copy, error) {
	query := `SELECT ` + selectCopyColumns + ` FROM book_copies c WHERE c.book_id = $1 ORDER BY c.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing copies: %w", err)
	}
	defer rows.Close()

	var copies []*catalog.Copy

	for rows.Next() {
		copy, err := scanCopy(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning copy: %w", err)
		}

		copies = append(copies, copy)
	}

	return copies, rows.Err()
}

func (s *Store) CountAvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error) {
	var n int

	query := `SELECT COUNT(*) FROM book_copies WHERE book_id = $1 AND status = $2`

	err := s.db.QueryRowContext(ctx, query, bookID, catalog.CopyAvailable).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting available copies: %w", err)
	}

	return n, nil
}

func (s *Store) UpdateCopyStatus(ctx context.Context, id uuid.UUID, status catalog.CopyStatus) error {
	query := `
		UPDATE book_copies
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	res, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating copy status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating copy status: %w", err)
	}

	if affected == 0 {
		return catalog.ErrCopyNotFound
	}

	return nil
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context) (catalog.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	return &importTx{tx: tx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) UpsertBook(ctx context.Context, book *catalog.Book) error {
	query := `
		INSERT INTO books (isbn, title, author, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (isbn) DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author, updated_at = NOW()
		RETURNING id, created_at
	`

	err := itx.tx.QueryRowContext(ctx, query, book.ISBN, book.Title, book.Author).
		Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting book: %w", err)
	}

	return nil
}

func (itx *importTx) CreateCopies(ctx context.Context, bookID uuid.UUID, units int) ([]*catalog.Copy, error) {
	query := `
		INSERT INTO book_copies (book_id, status, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, book_id, status, created_at, updated_at
	`

	copies := make([]*catalog.Copy, 0, units)

	for i := 0; i < units; i++ {
		var copy catalog.Copy

		var statusStr string

		err := itx.tx.QueryRowContext(ctx, query, bookID, catalog.CopyAvailable).
			Scan(&copy.ID, &copy.BookID, &statusStr, &copy.CreatedAt, &copy.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("creating copy: %w", err)
		}

		copy.Status = catalog.CopyStatus(statusStr)
		copies = append(copies, &copy)
	}

	return copies, nil
}
