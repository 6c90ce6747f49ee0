package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/quotemanager/internal/catalogserver"
	"github.com/andresuchdata/quotemanager/internal/catalogsource"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/andresuchdata/quotemanager/pkg/logger"
	"github.com/gorilla/mux"
)

// catalogd serves a workbook, bucket object or database as the getMaterials /
// getProducts backend the API server reads from.
func main() {
	cfg := config.Load()
	logger.Configure(cfg.Log.Level, cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// pointing catalogd at the backend would make it call itself
	kind := cfg.Source.Kind
	if kind == config.SourceBackend {
		kind = config.SourceWorkbook
	}

	source, err := catalogsource.Open(ctx, cfg, kind, false)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("kind", kind).Msg("Failed to open catalog source")
	}
	defer source.Close()

	r := mux.NewRouter()
	catalogserver.NewHandler(source.Source).RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Server.CatalogdPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("addr", addr).Str("source", source.Source.Name()).Msg("catalogd starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("catalogd failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("catalogd forced to shutdown")
	}
}
