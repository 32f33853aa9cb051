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
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/subtrack/internal/auth"
	authStore "github.com/MrJamesThe3rd/subtrack/internal/auth/store"
	"github.com/MrJamesThe3rd/subtrack/internal/category"
	categoryStore "github.com/MrJamesThe3rd/subtrack/internal/category/store"
	"github.com/MrJamesThe3rd/subtrack/internal/config"
	"github.com/MrJamesThe3rd/subtrack/internal/database"
	"github.com/MrJamesThe3rd/subtrack/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/subtrack/internal/expense/store"
	subtrackHttp "github.com/MrJamesThe3rd/subtrack/internal/http"
	authHandler "github.com/MrJamesThe3rd/subtrack/internal/http/auth"
	categoryHandler "github.com/MrJamesThe3rd/subtrack/internal/http/category"
	expenseHandler "github.com/MrJamesThe3rd/subtrack/internal/http/expense"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Billing dates roll over at midnight in the configured zone.
	now := func() time.Time { return time.Now().In(loc) }

	var (
		authService = auth.NewService(authStore.New(db), auth.Config{
			Secret:          []byte(cfg.Auth.Secret),
			AccessTokenTTL:  cfg.Auth.TokenTTL,
			RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		})
		expenseService  = expense.NewService(expenseStore.New(db), now)
		categoryService = category.NewService(categoryStore.New(db))
	)

	var (
		authH     = authHandler.NewHandler(authService)
		expenseH  = expenseHandler.NewHandler(expenseService)
		categoryH = categoryHandler.NewHandler(categoryService)
	)

	router := subtrackHttp.New(
		subtrackHttp.Options{AllowedOrigins: cfg.Server.AllowedOrigins},
		authService, authH, expenseH, categoryH,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", server.Addr, "timezone", loc.String())

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
