package borrow

import (
	"time"

	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
)

type requestResponse struct {
	ID          uuid.UUID     `json:"id"`
	MemberID    uuid.UUID     `json:"member_id"`
	StaffID     *uuid.UUID    `json:"staff_id,omitempty"`
	BookID      uuid.UUID     `json:"book_id"`
	CopyID      *uuid.UUID    `json:"copy_id,omitempty"`
	Status      borrow.Status `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	QR          string        `json:"qr"`
	CreatedAt   time.Time     `json:"created_at"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	BorrowedAt  *time.Time    `json:"borrowed_at,omitempty"`
	DueAt       *time.Time    `json:"due_at,omitempty"`
	ReturnedAt  *time.Time    `json:"returned_at,omitempty"`
}

func toResponse(req *borrow.Request) requestResponse {
	return requestResponse{
		ID:          req.ID,
		MemberID:    req.MemberID,
		StaffID:     req.StaffID,
		BookID:      req.BookID,
		CopyID:      req.CopyID,
		Status:      req.Status,
		Notes:       req.Notes,
		QR:          req.QR(),
		CreatedAt:   req.CreatedAt,
		ConfirmedAt: req.ConfirmedAt,
		BorrowedAt:  req.BorrowedAt,
		DueAt:       req.DueAt,
		ReturnedAt:  req.ReturnedAt,
	}
}

func toResponseList(reqs []*borrow.Request) []requestResponse {
	resp := make([]requestResponse, len(reqs))
	for i, req := range reqs {
		resp[i] = toResponse(req)
	}

	return resp
}
