package borrow

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/http/auth"
	"github.com/soaresmg/liber/internal/identity"
	"github.com/soaresmg/liber/internal/qr"
)

type Handler struct {
	svc *borrow.Service
}

func NewHandler(svc *borrow.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.With(auth.RequireRole(identity.RoleMember)).Post("/", h.create)
	r.With(auth.RequireRole(identity.RoleStaff)).Get("/", h.list)
	r.Get("/{id}", h.get)
	r.With(auth.RequireRole(identity.RoleStaff)).Post("/{id}/confirm", h.confirm)
	r.With(auth.RequireRole(identity.RoleStaff)).Post("/{id}/reject", h.reject)
	r.With(auth.RequireRole(identity.RoleMember)).Post("/{id}/cancel", h.cancel)
	r.With(auth.RequireRole(identity.RoleStaff)).Post("/return", h.returnCopy)
	r.With(auth.RequireRole(identity.RoleStaff)).Get("/qr/{code}", h.resolveQR)
}

type createRequest struct {
	BookIDs []uuid.UUID `json:"book_ids"`
	Notes   string      `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.svc.Create(r.Context(), principal.ProfileID, req.BookIDs, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, borrow.ErrNoBooks):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, catalog.ErrBookNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, borrow.ErrBookUnavailable):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusCreated, toResponseList(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := borrow.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := borrow.Status(s)
		filter.Status = &status
	}

	if s := r.URL.Query().Get("member_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid member_id", http.StatusBadRequest)
			return
		}

		filter.MemberID = &id
	}

	reqs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(reqs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, borrow.ErrNotFound) {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	// Members only see their own requests.
	if principal.Role == identity.RoleMember && req.MemberID != principal.ProfileID {
		http.Error(w, "request not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(req))
}

type confirmRequest struct {
	CopyID *uuid.UUID `json:"copy_id,omitempty"`
	Code   string     `json:"code,omitempty"`
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	copyID, ok := resolveCopyID(req.CopyID, req.Code)
	if !ok {
		http.Error(w, "copy_id or code is required", http.StatusBadRequest)
		return
	}

	confirmed, err := h.svc.Confirm(r.Context(), id, copyID, principal.ProfileID)
	if err != nil {
		writeBorrowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(confirmed))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rejected, err := h.svc.Reject(r.Context(), id, principal.ProfileID, req.Reason)
	if err != nil {
		writeBorrowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(rejected))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	cancelled, err := h.svc.Cancel(r.Context(), id, principal.ProfileID)
	if err != nil {
		writeBorrowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(cancelled))
}

type returnRequest struct {
	CopyID *uuid.UUID `json:"copy_id,omitempty"`
	Code   string     `json:"code,omitempty"`
}

func (h *Handler) returnCopy(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	copyID, ok := resolveCopyID(req.CopyID, req.Code)
	if !ok {
		http.Error(w, "copy_id or code is required", http.StatusBadRequest)
		return
	}

	returned, err := h.svc.Return(r.Context(), copyID)
	if err != nil {
		writeBorrowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(returned))
}

func (h *Handler) resolveQR(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.ResolveByQR(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, borrow.ErrNotFound) {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponse(req))
}

// resolveCopyID accepts either a raw copy id or a scanned label token.
func resolveCopyID(id *uuid.UUID, code string) (uuid.UUID, bool) {
	if id != nil {
		return *id, true
	}

	if code != "" {
		return qr.DecodeCopy(code)
	}

	return uuid.Nil, false
}

func writeBorrowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, borrow.ErrNotFound), errors.Is(err, catalog.ErrCopyNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, borrow.ErrNoActiveLoan):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, borrow.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, borrow.ErrNotPending),
		errors.Is(err, borrow.ErrCopyUnavailable),
		errors.Is(err, borrow.ErrWrongBook):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
