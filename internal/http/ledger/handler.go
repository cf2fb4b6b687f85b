package ledger

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/http/auth"
	"github.com/soaresmg/liber/internal/identity"
	"github.com/soaresmg/liber/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.mine)
	r.With(auth.RequireRole(identity.RoleStaff)).Get("/members/{id}", h.byMember)
	r.With(auth.RequireRole(identity.RoleStaff)).Get("/copies/{id}", h.byCopy)
}

type entryResponse struct {
	ID         uuid.UUID     `json:"id"`
	CopyID     uuid.UUID     `json:"copy_id"`
	MemberID   uuid.UUID     `json:"member_id"`
	StaffID    uuid.UUID     `json:"staff_id"`
	BorrowedAt time.Time     `json:"borrowed_at"`
	DueAt      time.Time     `json:"due_at"`
	ReturnedAt *time.Time    `json:"returned_at,omitempty"`
	Status     ledger.Status `json:"status"`
}

func toResponseList(entries []*ledger.Entry) []entryResponse {
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryResponse{
			ID:         e.ID,
			CopyID:     e.CopyID,
			MemberID:   e.MemberID,
			StaffID:    e.StaffID,
			BorrowedAt: e.BorrowedAt,
			DueAt:      e.DueAt,
			ReturnedAt: e.ReturnedAt,
			Status:     e.Status,
		}
	}

	return resp
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	entries, err := h.svc.History(r.Context(), principal.ProfileID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(entries))
}

func (h *Handler) byMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	entries, err := h.svc.History(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(entries))
}

func (h *Handler) byCopy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	entries, err := h.svc.CopyHistory(r.Context(), id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(entries))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
