// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/quotemanager/internal/api"
	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/andresuchdata/quotemanager/internal/catalogsource"
	"github.com/andresuchdata/quotemanager/internal/config"
	"github.com/andresuchdata/quotemanager/internal/costing"
	"github.com/andresuchdata/quotemanager/internal/metrics"
	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/andresuchdata/quotemanager/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Log.Level, cfg.Log.JSON)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := catalogsource.Open(ctx, cfg, "", true)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open catalog source")
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("closing catalog source")
		}
	}()

	m := metrics.New()
	store := catalog.NewStore(source.Source)
	store.OnLoad(m.ObserveLoad)

	engine := costing.NewEngine(costing.NewConfig(cfg.Costing.RoundingStep, cfg.Costing.RetailMultiplier))
	catalogService := service.NewCatalogService(store, source)
	quoteService := service.NewQuoteService(catalogService, engine, m)

	// a failed first load leaves an empty catalog; the API still starts and can be refreshed
	if _, err := catalogService.Refresh(ctx, false); err != nil {
		logger.Log.Warn().Err(err).Msg("Initial catalog load failed")
	}

	refresh := func(ctx context.Context) {
		if _, err := catalogService.Refresh(ctx, true); err != nil {
			logger.Log.Warn().Err(err).Msg("Catalog refresh failed")
		}
	}
	interval := time.Duration(cfg.Source.RefreshIntervalSeconds) * time.Second
	if interval > 0 {
		go source.Watch(ctx, interval, refresh)
		go refreshEvery(ctx, interval, refresh)
	}

	router := api.NewRouter(&api.Services{
		CatalogService: catalogService,
		QuoteService:   quoteService,
		Metrics:        m,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("source", source.Source.Name()).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// refreshEvery reloads the catalog on a fixed interval. Drive sources also get
// change-driven refreshes from Watch.
func refreshEvery(ctx context.Context, interval time.Duration, refresh func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}
