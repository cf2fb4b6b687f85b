package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soaresmg/liber/internal/bookimport"
	"github.com/soaresmg/liber/internal/catalog"
)

type Handler struct {
	parser     *bookimport.Parser
	catalogSvc *catalog.Service
}

func NewHandler(parser *bookimport.Parser, catalogSvc *catalog.Service) *Handler {
	return &Handler{
		parser:     parser,
		catalogSvc: catalogSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type importResponse struct {
	Books  int `json:"books"`
	Copies int `json:"copies"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := h.parser.Parse(file)
	if err != nil {
		http.Error(w, "failed to parse manifest: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.catalogSvc.Import(r.Context(), rows)
	if err != nil {
		http.Error(w, "failed to import manifest: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(importResponse{
		Books:  result.Books,
		Copies: result.Copies,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
