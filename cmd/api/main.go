package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaresmg/liber/internal/bookimport"
	"github.com/soaresmg/liber/internal/borrow"
	borrowStore "github.com/soaresmg/liber/internal/borrow/store"
	"github.com/soaresmg/liber/internal/cart"
	cartStore "github.com/soaresmg/liber/internal/cart/store"
	"github.com/soaresmg/liber/internal/catalog"
	catalogStore "github.com/soaresmg/liber/internal/catalog/store"
	"github.com/soaresmg/liber/internal/config"
	"github.com/soaresmg/liber/internal/database"
	liberHttp "github.com/soaresmg/liber/internal/http"
	"github.com/soaresmg/liber/internal/http/auth"
	borrowHandler "github.com/soaresmg/liber/internal/http/borrow"
	cartHandler "github.com/soaresmg/liber/internal/http/cart"
	catalogHandler "github.com/soaresmg/liber/internal/http/catalog"
	importHandler "github.com/soaresmg/liber/internal/http/importcsv"
	ledgerHandler "github.com/soaresmg/liber/internal/http/ledger"
	"github.com/soaresmg/liber/internal/identity"
	identityStore "github.com/soaresmg/liber/internal/identity/store"
	"github.com/soaresmg/liber/internal/ledger"
	ledgerStore "github.com/soaresmg/liber/internal/ledger/store"
	"github.com/soaresmg/liber/internal/reconciler"
	reconcilerStore "github.com/soaresmg/liber/internal/reconciler/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		catalogService  = catalog.NewService(catalogStore.New(db))
		borrowService   = borrow.NewService(borrowStore.New(db), cfg.Loans.Period)
		cartService     = cart.NewService(cartStore.New(db), catalogService, borrowService)
		ledgerService   = ledger.NewService(ledgerStore.New(db))
		identityService = identity.NewService(identityStore.New(db))
	)

	var (
		borrowH  = borrowHandler.NewHandler(borrowService)
		cartH    = cartHandler.NewHandler(cartService)
		catalogH = catalogHandler.NewHandler(catalogService)
		importH  = importHandler.NewHandler(bookimport.New(), catalogService)
		ledgerH  = ledgerHandler.NewHandler(ledgerService)
	)

	authMiddleware := auth.New(cfg.Auth.JWTSecret, identityService)
	router := liberHttp.New(authMiddleware, borrowH, cartH, catalogH, importH, ledgerH)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := reconciler.New(reconcilerStore.New(db), cfg.Reconciler.Interval, slog.Default())
	go rec.Run(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		slog.Info("starting server", "addr", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
