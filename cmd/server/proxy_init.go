// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/reelrank/internal/cache"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/proxy"
)

// initProxy builds the shared TMDb proxy, or returns nil when disabled.
func initProxy(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	if !cfg.Proxy.Enabled {
		logging.Info().Msg("TMDb proxy disabled (PROXY_ENABLED=false)")
		return nil, nil
	}

	edge, err := cache.New(ctx, cache.Config{
		Backend:       cfg.Proxy.CacheBackend,
		Capacity:      cfg.Proxy.CacheCapacity,
		RedisAddr:     cfg.Proxy.RedisAddr,
		RedisPassword: cfg.Proxy.RedisPassword,
		RedisDB:       cfg.Proxy.RedisDB,
		KeyPrefix:     "reelrank:proxy:",
	})
	if err != nil {
		return nil, fmt.Errorf("proxy edge cache: %w", err)
	}

	h := proxy.New(proxy.Config{
		AllowedOrigins: cfg.Proxy.AllowedOrigins,
		APIKey:         cfg.UpstreamKey(),
		UpstreamURL:    cfg.Proxy.UpstreamURL,
		SearchTTL:      cfg.Proxy.SearchTTL,
		MovieTTL:       cfg.Proxy.MovieTTL,
		Cache:          edge,
	})
	logging.Info().
		Str("cache", cfg.Proxy.CacheBackend).
		Strs("origins", h.AllowedOrigins()).
		Msg("TMDb proxy enabled")
	return h, nil
}
