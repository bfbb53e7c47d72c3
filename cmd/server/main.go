// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/reelrank/internal/api"
	"github.com/tomtom215/reelrank/internal/canonical"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/generation"
	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/storage"
	"github.com/tomtom215/reelrank/internal/supervisor"
	"github.com/tomtom215/reelrank/internal/supervisor/services"
	ws "github.com/tomtom215/reelrank/internal/websocket"
)

//nolint:gocyclo // sequential startup wiring
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stdout,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Bool("tmdb_key", cfg.TMDb.APIKey != "").
		Bool("tmdb_proxy", cfg.TMDb.UsesProxy()).
		Msg("Starting Reelrank")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === STORAGE ===

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()

	enc, err := openEncryptor(cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize credential encryption")
	}
	stores := storage.NewStores(store.kv, enc)
	stores.Settings.SetDefaults(models.Settings{
		LetterboxdUsername: models.NormalizeUsername(cfg.Letterboxd.Username),
		MaxSeeds:           cfg.Recommend.MaxSeeds,
		MaxRecommendations: cfg.Recommend.MaxRecommendations,
		PopularityFilter:   cfg.Recommend.PopularityFilter,
	})

	// === SOURCES ===

	tmdbClient := newTMDbClient(cfg.TMDb, stores.IDs)
	if settings, err := stores.Settings.Get(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to read stored settings; using configured TMDb key")
	} else if settings.TMDbAPIKey != "" {
		tmdbClient.SetAPIKey(settings.TMDbAPIKey)
	}
	if !tmdbClient.Configured() {
		logging.Warn().Msg("No TMDb API key or proxy configured; generation is unavailable until a key is saved in settings")
	}

	engine, err := newEngine(cfg, tmdbClient.Client, stores.IDs)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	lbClient := letterboxd.NewClient(letterboxd.Config{
		BaseURL:   cfg.Letterboxd.BaseURL,
		UserAgent: cfg.Letterboxd.UserAgent,
		Timeout:   cfg.Letterboxd.Timeout,
	})
	resolver := letterboxd.NewResolver(lbClient)
	canon := canonical.NewService(stores.Slugs, resolver, cfg.Recommend.CanonicalConcurrency)
	watchlist := letterboxd.NewWatchlist(lbClient, resolver, stores.LIDs, stores.WatchlistAdds, stores.Flags)
	scraper := letterboxd.NewScraper(lbClient, letterboxd.ScraperDeps{
		Profiles:  stores.Profiles,
		Health:    stores.Flags,
		Watchlist: stores.WatchlistAdds,
		Settings:  stores.Settings,
	}, letterboxd.NewPageQueue(letterboxd.DefaultQueueSize))

	// === GENERATION ===

	hub := ws.NewHub()
	coordinator, err := generation.New(generation.Deps{
		Profiles:  stores.Profiles,
		Scraper:   scraper,
		Results:   stores.Results,
		Flags:     stores.Flags,
		Engine:    engine,
		Canonical: canon,
		Settings:  stores.Settings,
		Watchlist: stores.WatchlistAdds,
		Progress:  hub,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create generation coordinator")
	}
	coordinator.SetTimeout(cfg.Recommend.GenerationTimeout)

	// === HTTP ===

	tmdbProxy, err := initProxy(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize TMDb proxy")
	}

	handler, err := api.NewHandler(api.HandlerDeps{
		Recommender:      coordinator,
		Scraper:          scraper,
		Profiles:         stores.Profiles,
		Settings:         stores.Settings,
		Health:           stores.Flags,
		Canonical:        canon,
		Watchlist:        watchlist,
		TMDb:             tmdbClient,
		Queue:            scraper.Queue(),
		Hub:              hub,
		WebSocketOrigins: cfg.Security.CORSOrigins,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handler")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS_ORIGINS contains '*'; any website can call the API and open progress streams")
			break
		}
	}
	mw := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	router := api.NewRouter(handler, mw, tmdbProxy)

	// No WriteTimeout: refreshes wait on generation and progress streams
	// stay open.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewPageFetchService(scraper.Queue(), scraper, services.PageFetchServiceConfig{
		Delay: cfg.Letterboxd.PageDelay,
	}, logging.Logger()))
	if store.gc != nil {
		tree.AddDataService(services.NewStorageGCService(store.gc, services.DefaultGCInterval, logging.Logger()))
	}
	tree.AddMessagingService(services.NewProgressHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, services.DefaultShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 { //nolint:errcheck // report is best effort
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("Reelrank stopped")
}
