package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/soaresmg/liber/internal/catalog"
	"github.com/soaresmg/liber/internal/http/auth"
	"github.com/soaresmg/liber/internal/identity"
)

type Handler struct {
	svc *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.With(auth.RequireRole(identity.RoleStaff)).Post("/", h.create)
	r.Get("/{id}", h.get)
	r.With(auth.RequireRole(identity.RoleStaff)).Get("/{id}/copies", h.copies)
}

// CopyRoutes serves copy-level operations, mounted separately from the
// book routes.
func (h *Handler) CopyRoutes(r chi.Router) {
	r.Patch("/{id}/status", h.markCopy)
	r.Get("/qr/{code}", h.resolveQR)
}

type createBookRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	book, err := h.svc.CreateBook(r.Context(), catalog.CreateBookParams{
		ISBN:   req.ISBN,
		Title:  req.Title,
		Author: req.Author,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidBook) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(book))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{}

	if s := r.URL.Query().Get("isbn"); s != "" {
		filter.ISBN = &s
	}

	if s := r.URL.Query().Get("title"); s != "" {
		filter.Title = &s
	}

	books, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponseList(books))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	book, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *Handler) copies(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	copies, err := h.svc.Copies(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrBookNotFound) {
			http.Error(w, "book not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toCopyResponseList(copies))
}

type markCopyRequest struct {
	Status catalog.CopyStatus `json:"status"`
}

func (h *Handler) markCopy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req markCopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkCopy(r.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidMark):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, catalog.ErrCopyNotFound):
			http.Error(w, "copy not found", http.StatusNotFound)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolveQR(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ResolveCopyByQR(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, catalog.ErrCopyNotFound) {
			http.Error(w, "copy not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toCopyResponse(c))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
