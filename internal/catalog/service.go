package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/qr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateBook(ctx context.Context, book *Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, filter ListFilter) ([]*Book, error)
	BookExists(ctx context.Context, id uuid.UUID) (bool, error)

	GetCopy(ctx context.Context, id uuid.UUID) (*Copy, error)
	ListCopies(ctx context.Context, bookID uuid.UUID) ([]*Copy, error)
	CountAvailableCopies(ctx context.Context, bookID uuid.UUID) (int, error)
	UpdateCopyStatus(ctx context.Context, id uuid.UUID, status CopyStatus) error

	BeginImport(ctx context.Context) (ImportTx, error)
}

// ImportTx is the unit of work for a manifest import: all books and
// copies from one file land together or not at all.
type ImportTx interface {
	UpsertBook(ctx context.Context, book *Book) error
	CreateCopies(ctx context.Context, bookID uuid.UUID, units int) ([]*Copy, error)
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateBookParams struct {
	ISBN   string
	Title  string
	Author string
}

type ListFilter struct {
	ISBN  *string
	Title *string
}

func (s *Service) CreateBook(ctx context.Context, params CreateBookParams) (*Book, error) {
	if params.ISBN == "" || params.Title == "" {
		return nil, ErrInvalidBook
	}

	book := &Book{
		ISBN:   params.ISBN,
		Title:  params.Title,
		Author: params.Author,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Book, error) {
	return s.repo.ListBooks(ctx, filter)
}

func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.BookExists(ctx, id)
}

// HasAvailableCopy reports whether at least one copy of the book can be
// borrowed right now. It is a point-in-time answer, not a reservation.
func (s *Service) HasAvailableCopy(ctx context.Context, bookID uuid.UUID) (bool, error) {
	n, err := s.repo.CountAvailableCopies(ctx, bookID)
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Service) IsCopyAvailable(ctx context.Context, copyID uuid.UUID) (bool, error) {
	copy, err := s.repo.GetCopy(ctx, copyID)
	if err != nil {
		return false, err
	}

	return copy.Status == CopyAvailable, nil
}

func (s *Service) Copies(ctx context.Context, bookID uuid.UUID) ([]*Copy, error) {
	return s.repo.ListCopies(ctx, bookID)
}

// MarkCopy records a manual condition change on a copy. Allocation
// transitions (available/borrowed) belong to the borrow flow and are
// rejected here.
func (s *Service) MarkCopy(ctx context.Context, copyID uuid.UUID, status CopyStatus) error {
	switch status {
	case CopyLost, CopyDamaged, CopyCleared:
	default:
		return ErrInvalidMark
	}

	return s.repo.UpdateCopyStatus(ctx, copyID, status)
}

// ResolveCopyByQR looks up a copy from a scanned COPY-… token.
// Malformed tokens resolve to not-found, never to an error.
func (s *Service) ResolveCopyByQR(ctx context.Context, code string) (*Copy, error) {
	id, ok := qr.DecodeCopy(code)
	if !ok {
		return nil, ErrCopyNotFound
	}

	return s.repo.GetCopy(ctx, id)
}

type ImportRow struct {
	ISBN   string
	Title  string
	Author string
	Units  int
}

type ImportResult struct {
	Books  int
	Copies int
}

// Import upserts each manifest row's book by ISBN and creates one
// available copy per unit received, all in one transaction.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return &ImportResult{}, nil
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	result := &ImportResult{}

	for _, row := range rows {
		book := &Book{
			ISBN:   row.ISBN,
			Title:  row.Title,
			Author: row.Author,
		}
		if err := itx.UpsertBook(ctx, book); err != nil {
			return nil, fmt.Errorf("upsert book %s: %w", row.ISBN, err)
		}

		copies, err := itx.CreateCopies(ctx, book.ID, row.Units)
		if err != nil {
			return nil, fmt.Errorf("create copies for %s: %w", row.ISBN, err)
		}

		result.Books++
		result.Copies += len(copies)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return result, nil
}
