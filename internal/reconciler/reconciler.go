// Package reconciler derives borrow-request status from copy state and
// the clock. User actions keep request and copy in step most of the
// time; this loop catches what they miss, most importantly the
// borrowed→overdue flip that no direct action triggers.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
)

//go:generate mockgen -source=reconciler.go -destination=reconciler_mock.go -package=reconciler
type Repository interface {
	ListActive(ctx context.Context) ([]*Item, error)
	// UpdateStatus moves a request from one status to another and
	// reports whether a row changed. A concurrent transition between
	// scan and write leaves zero rows, which is not an error here.
	UpdateStatus(ctx context.Context, requestID uuid.UUID, from, to borrow.Status) (bool, error)
}

// Item is one active request joined with its copy's current state.
type Item struct {
	RequestID  uuid.UUID
	Status     borrow.Status
	DueAt      *time.Time
	ReturnedAt *time.Time
	CopyID     *uuid.UUID
	CopyStatus catalog.CopyStatus
}

type Reconciler struct {
	repo     Repository
	interval time.Duration
	log      *slog.Logger
}

func New(repo Repository, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		interval: interval,
		log:      log,
	}
}

// Run loops until ctx is cancelled. A failed pass is logged and the
// loop waits for the next tick; it never crashes the process.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Info("reconciler started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Reconcile(ctx); err != nil {
				r.log.Error("reconcile pass failed", "error", err)
			}
		}
	}
}

// Reconcile runs one pass over all active requests. It only writes
// request statuses, never copy state, and only when the derived status
// differs from the stored one, so a repeat pass with no intervening
// change writes nothing.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	items, err := r.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active requests: %w", err)
	}

	now := time.Now()

	for _, item := range items {
		if err := r.reconcileItem(ctx, item, now); err != nil {
			r.log.Error("reconciling request failed",
				"request_id", item.RequestID, "error", err)
		}
	}

	return nil
}

func (r *Reconciler) reconcileItem(ctx context.Context, item *Item, now time.Time) error {
	if item.CopyID == nil {
		r.log.Warn("active request has no copy bound", "request_id", item.RequestID)
		return nil
	}

	target, ok := derive(item, now)
	if !ok {
		r.log.Warn("copy state needs manual review",
			"request_id", item.RequestID, "copy_id", item.CopyID, "copy_status", item.CopyStatus)
		return nil
	}

	if target == item.Status {
		return nil
	}

	changed, err := r.repo.UpdateStatus(ctx, item.RequestID, item.Status, target)
	if err != nil {
		return err
	}

	if !changed {
		// Someone transitioned the request between scan and write.
		return nil
	}

	r.log.Info("request status reconciled",
		"request_id", item.RequestID, "from", item.Status, "to", target)

	return nil
}

// derive computes the status an active request should be in. ok=false
// means the copy is in a state the reconciler must not touch.
func derive(item *Item, now time.Time) (borrow.Status, bool) {
	switch item.CopyStatus {
	case catalog.CopyBorrowed:
		if item.DueAt != nil && now.After(*item.DueAt) {
			return borrow.StatusOverdue, true
		}

		return borrow.StatusBorrowed, true

	case catalog.CopyAvailable:
		// The return already happened; make the request agree with it.
		if item.ReturnedAt == nil {
			return "", false
		}

		if item.DueAt != nil && item.ReturnedAt.After(*item.DueAt) {
			return borrow.StatusOverdueReturned, true
		}

		return borrow.StatusReturned, true

	default:
		// lost, damaged, reserved, cleared: manual territory.
		return "", false
	}
}
