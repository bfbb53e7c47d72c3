// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
	ws "github.com/tomtom215/reelrank/internal/websocket"
)

// Recommender runs and caches generations. *generation.Coordinator
// satisfies it.
type Recommender interface {
	EnsureStarted(ctx context.Context, username string, settings models.Settings) (*models.RecommendationResult, error)
	GetCached(ctx context.Context, username string) (*models.RecommendationResult, error)
	InProgress(ctx context.Context, username string) (*models.GenerationFlag, error)
	FilmRecommendations(ctx context.Context, slug, title string, year int) (*models.RecommendationResult, error)
}

// ProfileIngester refreshes profiles. *letterboxd.Scraper satisfies it.
type ProfileIngester interface {
	ScrapeProfile(ctx context.Context, username string) (*letterboxd.ScrapeReport, error)
	IngestPage(ctx context.Context, page models.PageIngest) (*models.UserProfile, error)
}

// ProfileReader loads stored profiles.
type ProfileReader interface {
	Get(ctx context.Context, username string) (*models.UserProfile, error)
}

// SettingsStore reads and updates settings.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, u models.SettingsUpdate) (models.Settings, error)
}

// HealthReader reports service health for a user or the global scope.
type HealthReader interface {
	Health(ctx context.Context, scope string) (models.ServiceHealth, error)
}

// CanonicalResolver resolves canonical film slugs.
type CanonicalResolver interface {
	ResolveCached(ctx context.Context, tmdbID int, slug, title string, year int) (string, error)
}

// WatchlistAdder adds films to the signed-in user's watchlist.
type WatchlistAdder interface {
	Add(ctx context.Context, req models.WatchlistRequest) models.WatchlistResult
}

// TMDbKeyHolder is the TMDb client's credential. *tmdb.Client satisfies it.
type TMDbKeyHolder interface {
	SetAPIKey(key string)
	Configured() bool
}

// QueueLen reports the depth of the background page queue.
type QueueLen interface {
	Len() int
}

// HandlerDeps wires a Handler. Hub, TMDb and Queue are optional.
type HandlerDeps struct {
	Recommender Recommender
	Scraper     ProfileIngester
	Profiles    ProfileReader
	Settings    SettingsStore
	Health      HealthReader
	Canonical   CanonicalResolver
	Watchlist   WatchlistAdder
	TMDb        TMDbKeyHolder
	Queue       QueueLen
	Hub         *ws.Hub

	// WebSocketOrigins are the origins allowed to open progress streams.
	// "*" allows any origin.
	WebSocketOrigins []string
}

// Handler serves the /api/v1 endpoints.
//
// Methods are split across files:
//   - handlers_health.go: service and per-user health
//   - handlers_settings.go: settings read and update
//   - handlers_recommend.go: generation, cached results, film pages, canonical URLs
//   - handlers_profile.go: scrape, page ingest, stored profiles
//   - handlers_watchlist.go: watchlist adds
//   - handlers_websocket.go: progress streams
type Handler struct {
	deps      HandlerDeps
	startTime time.Time
}

// NewHandler creates a Handler.
//
//nolint:gocritic // deps are read once at startup
func NewHandler(deps HandlerDeps) (*Handler, error) {
	switch {
	case deps.Recommender == nil, deps.Scraper == nil, deps.Profiles == nil:
		return nil, errors.New("api: recommender, scraper and profile store are required")
	case deps.Settings == nil, deps.Health == nil, deps.Canonical == nil, deps.Watchlist == nil:
		return nil, errors.New("api: settings, health, canonical and watchlist dependencies are required")
	}
	return &Handler{deps: deps, startTime: time.Now()}, nil
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin rejects connections without an allowed Origin.
// Browsers always send Origin on websocket handshakes.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	for _, allowed := range h.deps.WebSocketOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
