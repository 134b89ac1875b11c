package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/adapter/csvfile"
	httpadapter "github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/adapter/http"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/config"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/observability"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/pipeline"
	"github.com/jcruz-ferreyra/BARI-streamlit-csv/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using OS environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	readings := csvfile.NewReadingsSource(cfg.ReadingsPath, logger)
	metadata := csvfile.NewMetadataSource(cfg.MetadataPath, logger)

	st := store.New(readings, metadata, cfg.ReadingsTTL, clock, logger, metrics)

	// Warm the snapshot before accepting traffic. A missing or unreadable
	// readings table is the one startup failure we refuse to serve through.
	if _, err := st.Snapshot(context.Background()); err != nil {
		logger.Error("initial snapshot load failed", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(st, cfg.DefaultBucket, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
