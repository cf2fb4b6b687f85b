package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soaresmg/liber/internal/http/auth"
	borrowHandler "github.com/soaresmg/liber/internal/http/borrow"
	cartHandler "github.com/soaresmg/liber/internal/http/cart"
	catalogHandler "github.com/soaresmg/liber/internal/http/catalog"
	importHandler "github.com/soaresmg/liber/internal/http/importcsv"
	ledgerHandler "github.com/soaresmg/liber/internal/http/ledger"
	"github.com/soaresmg/liber/internal/identity"
)

func New(
	authMiddleware *auth.Middleware,
	borrowV1 *borrowHandler.Handler,
	cartV1 *cartHandler.Handler,
	catalogV1 *catalogHandler.Handler,
	importV1 *importHandler.Handler,
	ledgerV1 *ledgerHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/borrow", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			borrowV1.Routes(r)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(auth.RequireRole(identity.RoleMember))
			r.Use(middleware.AllowContentType("application/json"))
			cartV1.Routes(r)
		})

		r.Route("/books", func(r chi.Router) {
			catalogV1.Routes(r)
		})

		r.Route("/copies", func(r chi.Router) {
			r.Use(auth.RequireRole(identity.RoleStaff))
			catalogV1.CopyRoutes(r)
		})

		r.Route("/import", func(r chi.Router) {
			r.Use(auth.RequireRole(identity.RoleStaff))
			importV1.Routes(r)
		})

		r.Route("/ledger", func(r chi.Router) {
			ledgerV1.Routes(r)
		})
	})

	return router
}
