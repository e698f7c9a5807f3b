// Command devserver serves the storefront API over plain HTTP for local
// development, using the same handlers the API lambda routes to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hamperland/storefront/internal/api"
	"github.com/hamperland/storefront/internal/config"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ctx.Done():
			return
		case <-ch:
			cancel()
		}
	}()

	return ctx, cancel
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Errorf("could not load .env: %w", err))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx, cancel := withSignals(context.Background())
	defer cancel()

	configBuilder := config.NewBuilder(
		config.WithProductStore(),
		config.WithOrderStore(),
		config.WithImageUploads(),
	)
	cfg, err := configBuilder.BuildConfig(ctx, "devserver.buildconfig")
	if err != nil {
		panic(fmt.Errorf("could not build config: %w", err))
	}

	addr := ":" + envOr("PORT", "8080")
	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(api.Routes(*cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down", "error", err)
		}
	}()

	slog.Info("Dev server listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
