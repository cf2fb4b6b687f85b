package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/borrow"
	"github.com/soaresmg/liber/internal/cart"
	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/http/auth"
)

type Handler struct {
	svc *cart.Service
}

func NewHandler(svc *cart.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Post("/items", h.add)
	r.Delete("/items/{id}", h.remove)
	r.Delete("/", h.clear)
	r.Post("/checkout", h.checkout)
}

type itemResponse struct {
	ID      uuid.UUID `json:"id"`
	BookID  uuid.UUID `json:"book_id"`
	AddedAt time.Time `json:"added_at"`
}

type cartResponse struct {
	ID        uuid.UUID      `json:"id"`
	MemberID  uuid.UUID      `json:"member_id"`
	Items     []itemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]itemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = itemResponse{
			ID:      item.ID,
			BookID:  item.BookID,
			AddedAt: item.AddedAt,
		}
	}

	return cartResponse{
		ID:        c.ID,
		MemberID:  c.MemberID,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	c, err := h.svc.Get(r.Context(), principal.ProfileID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type addItemRequest struct {
	BookID uuid.UUID `json:"book_id"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.BookID == uuid.Nil {
		http.Error(w, "book_id is required", http.StatusBadRequest)
		return
	}

	item, err := h.svc.Add(r.Context(), principal.ProfileID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrBookNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, borrow.ErrBookUnavailable), errors.Is(err, cart.ErrDuplicateItem):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusCreated, itemResponse{
		ID:      item.ID,
		BookID:  item.BookID,
		AddedAt: item.AddedAt,
	})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
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

	removed, err := h.svc.Remove(r.Context(), principal.ProfileID, id)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !removed {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	if _, err := h.svc.Clear(r.Context(), principal.ProfileID); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	Notes string `json:"notes"`
}

type checkoutResponse struct {
	Requested int         `json:"requested"`
	Requests  []uuid.UUID `json:"request_ids"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if r.Body != nil {
		// Body is optional; a decode error on an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	created, err := h.svc.Checkout(r.Context(), principal.ProfileID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrEmptyCart):
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

	ids := make([]uuid.UUID, len(created))
	for i, br := range created {
		ids[i] = br.ID
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Requested: len(ids),
		Requests:  ids,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
