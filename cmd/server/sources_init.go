// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package main

import (
	"net/http"
	"strings"

	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/sources/reddit"
	"github.com/tomtom215/reelrank/internal/sources/tasteio"
	"github.com/tomtom215/reelrank/internal/sources/tmdb"
	"github.com/tomtom215/reelrank/internal/storage"
)

// tmdbKey routes settings key changes to the TMDb client. Clearing the
// key in settings falls back to the configured one.
type tmdbKey struct {
	*tmdb.Client
	fallback string
}

func (k *tmdbKey) SetAPIKey(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = k.fallback
	}
	k.Client.SetAPIKey(key)
}

// newTMDbClient builds the TMDb client backed by the permanent id cache.
func newTMDbClient(cfg config.TMDbConfig, ids *storage.IDCache) *tmdbKey {
	client := tmdb.New(tmdb.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ProxyBaseURL: cfg.ProxyBaseURL,
		ProxyOrigin:  cfg.ProxyOrigin,
		RateLimit:    cfg.RateLimit,
		Burst:        cfg.Burst,
		HTTP:         &http.Client{Timeout: cfg.Timeout},
	}, ids)
	if cfg.UsesProxy() {
		logging.Info().Str("proxy", cfg.ProxyBaseURL).Msg("TMDb requests go through the shared proxy")
	}
	return &tmdbKey{Client: client, fallback: cfg.APIKey}
}

// newEngine wires the recommendation engine. Disabled sources stay nil so
// the engine skips them.
func newEngine(cfg *config.Config, movies recommend.MovieSource, ids recommend.IDLookup) (*recommend.Engine, error) {
	src := recommend.Sources{Movies: movies, IDs: ids}
	if cfg.Reddit.Enabled {
		src.Reddit = reddit.New(reddit.Config{
			BaseURL:    cfg.Reddit.BaseURL,
			Subreddits: cfg.Reddit.Subreddits,
			UserAgent:  cfg.Reddit.UserAgent,
			RateLimit:  cfg.Reddit.RateLimit,
			Burst:      cfg.Reddit.Burst,
			Deadline:   cfg.Reddit.Timeout,
		})
	}
	if cfg.TasteIO.Enabled {
		src.TasteIO = tasteio.New(tasteio.Config{
			BaseURL:   cfg.TasteIO.BaseURL,
			UserAgent: cfg.TasteIO.UserAgent,
			RateLimit: cfg.TasteIO.RateLimit,
			Burst:     cfg.TasteIO.Burst,
			Deadline:  cfg.TasteIO.Timeout,
		})
	}
	logging.Info().
		Bool("reddit", cfg.Reddit.Enabled).
		Bool("tasteio", cfg.TasteIO.Enabled).
		Msg("Recommendation sources configured")
	return recommend.NewEngine(src)
}
