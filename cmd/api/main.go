// backend/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sripavan/internal/infra/config"
	applog "sripavan/internal/infra/logger"
	"sripavan/internal/platform/di"
)

func main() {
	// .env is optional; real env wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[boot] WARN: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[boot] config: %v", err)
	}

	zl, err := applog.New(applog.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("[boot] logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar().Named("api")

	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("server error", "err", err)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────
	// DI container
	// ─────────────────────────────────────────────────────────────
	cont, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go cont.Registry.Run(runCtx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           cont.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown for Cloud Run
	// ─────────────────────────────────────────────────────────────
	select {
	case err := <-serveErr:
		_ = cont.Close(context.Background())
		return err
	case <-ctx.Done():
		logger.Infow("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("server shutdown error", "err", err)
	}
	cancelRun()
	if err := cont.Close(shutdownCtx); err != nil {
		logger.Warnw("container close error", "err", err)
	}
	logger.Infow("server stopped")
	return nil
}
