package borrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/ledger"
	"github.com/soaresmg/liber/internal/qr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=borrow
type Repository interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)
	ListRequests(ctx context.Context, filter ListFilter) ([]*Request, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is the unit of work every state transition runs in. Reads issued
// through it lock the rows they touch, so a read-check-write sequence
// behaves atomically under concurrent calls for the same request or copy.
type Tx interface {
	BookExists(ctx context.Context, bookID uuid.UUID) (bool, error)
	HasAvailableCopy(ctx context.Context, bookID uuid.UUID) (bool, error)
	CreateRequests(ctx context.Context, reqs []*Request) error

	GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	FindActiveRequestByCopy(ctx context.Context, copyID uuid.UUID) (*Request, error)
	UpdateRequest(ctx context.Context, req *Request) error

	GetCopy(ctx context.Context, copyID uuid.UUID) (*catalog.Copy, error)
	// AssignCopy moves a copy from available to borrowed as one
	// conditional update; ErrCopyUnavailable when the copy is in any
	// other state.
	AssignCopy(ctx context.Context, copyID uuid.UUID) error
	ReleaseCopy(ctx context.Context, copyID uuid.UUID) error

	OpenLoan(ctx context.Context, entry *ledger.Entry) error
	CloseLoan(ctx context.Context, copyID uuid.UUID, returnedAt time.Time) error

	Commit() error
	Rollback() error
}

type ListFilter struct {
	Status   *Status
	MemberID *uuid.UUID
}

type Service struct {
	repo       Repository
	loanPeriod time.Duration
}

func NewService(repo Repository, loanPeriod time.Duration) *Service {
	return &Service{
		repo:       repo,
		loanPeriod: loanPeriod,
	}
}

// Create opens one pending request per book id. The batch is
// all-or-nothing: an unknown or fully unavailable book aborts every
// request and the error names the offending book.
func (s *Service) Create(ctx context.Context, memberID uuid.UUID, bookIDs []uuid.UUID, notes string) ([]*Request, error) {
	if len(bookIDs) == 0 {
		return nil, ErrNoBooks
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	for _, bookID := range bookIDs {
		exists, err := tx.BookExists(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("checking book %s: %w", bookID, err)
		}

		if !exists {
			return nil, fmt.Errorf("book %s: %w", bookID, catalog.ErrBookNotFound)
		}

		available, err := tx.HasAvailableCopy(ctx, bookID)
		if err != nil {
			return nil, fmt.Errorf("checking availability of %s: %w", bookID, err)
		}

		if !available {
			return nil, fmt.Errorf("book %s: %w", bookID, ErrBookUnavailable)
		}
	}

	reqs := make([]*Request, 0, len(bookIDs))
	for _, bookID := range bookIDs {
		reqs = append(reqs, &Request{
			ID:       uuid.New(),
			MemberID: memberID,
			BookID:   bookID,
			Status:   StatusPending,
			Notes:    notes,
		})
	}

	if err := tx.CreateRequests(ctx, reqs); err != nil {
		return nil, fmt.Errorf("creating requests: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	return reqs, nil
}

// Confirm binds a physical copy to a pending request and starts the
// loan. The copy assignment is a conditional update, so of two staff
// confirming against the same copy exactly one wins; the loser sees
// ErrCopyUnavailable and the request stays pending.
func (s *Service) Confirm(ctx context.Context, requestID, copyID, staffID uuid.UUID) (*Request, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback()

	req, err := tx.GetRequestForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	copy, err := tx.GetCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}

	if copy.BookID != req.BookID {
		return nil, ErrWrongBook
	}

	if err := tx.AssignCopy(ctx, copyID); err != nil {
		return nil, err
	}

	now := time.Now()
	due := now.Add(s.loanPeriod)

	req.Status = StatusBorrowed
	req.CopyID = &copyID
	req.StaffID = &staffID
	req.ConfirmedAt = &now
	req.BorrowedAt = &now
	req.DueAt = &due

	if err := tx.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	entry := &ledger.Entry{
		CopyID:     copyID,
		MemberID:   req.MemberID,
		StaffID:    staffID,
		BorrowedAt: now,
		DueAt:      due,
		Status:     ledger.StatusBorrowed,
	}
	if err := tx.OpenLoan(ctx, entry); err != nil {
		return nil, fmt.Errorf("opening loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit confirm: %w", err)
	}

	return req, nil
}

// Reject declines a pending request. No copy was ever assigned, so only
// the request row changes.
func (s *Service) Reject(ctx context.Context, requestID, staffID uuid.UUID, reason string) (*Request, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reject: %w", err)
	}
	defer tx.Rollback()

	req, err := tx.GetRequestForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	req.Status = StatusRejected
	req.StaffID = &staffID

	if reason != "" {
		if req.Notes != "" {
			req.Notes += "\n"
		}

		req.Notes += "rejected: " + reason
	}

	if err := tx.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reject: %w", err)
	}

	return req, nil
}

// Cancel withdraws a pending request. Only the requesting member may
// cancel it.
func (s *Service) Cancel(ctx context.Context, requestID, memberID uuid.UUID) (*Request, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	req, err := tx.GetRequestForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.MemberID != memberID {
		return nil, ErrNotOwner
	}

	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	req.Status = StatusCancelled

	if err := tx.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}

	return req, nil
}

// Return finalizes the loan bound to a copy: the request moves to
// returned or overdue_returned, the copy becomes available again and
// the open ledger entry closes, all in one transaction.
func (s *Service) Return(ctx context.Context, copyID uuid.UUID) (*Request, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin return: %w", err)
	}
	defer tx.Rollback()

	req, err := tx.FindActiveRequestByCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	req.ReturnedAt = &now
	if req.Overdue(now) {
		req.Status = StatusOverdueReturned
	} else {
		req.Status = StatusReturned
	}

	if err := tx.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("updating request: %w", err)
	}

	if err := tx.ReleaseCopy(ctx, copyID); err != nil {
		return nil, err
	}

	if err := tx.CloseLoan(ctx, copyID, now); err != nil {
		return nil, fmt.Errorf("closing loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}

	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	return s.repo.ListRequests(ctx, filter)
}

// ResolveByQR looks up a request from a scanned BORROW-… token.
// Malformed tokens resolve to not-found, never to an error.
func (s *Service) ResolveByQR(ctx context.Context, code string) (*Request, error) {
	id, ok := qr.DecodeBorrow(code)
	if !ok {
		return nil, ErrNotFound
	}

	return s.repo.GetRequest(ctx, id)
}
