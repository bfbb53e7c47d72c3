// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/storage"
	"github.com/tomtom215/reelrank/internal/titles"
)

// Watchlist failure reasons returned to callers.
const (
	ReasonNoLID            = "no-lid"
	ReasonNoCSRF           = "no-csrf"
	ReasonNotAuthenticated = "not-authenticated"
	ReasonRequestFailed    = "request-failed"
)

// Degraded health reasons for watchlist failures.
const (
	ReasonParserDegraded = "Letterboxd watchlist parser is degraded; opening film pages as fallback."
	ReasonAPIUnavailable = "Letterboxd watchlist API is temporarily unavailable; opening film pages as fallback."
)

var (
	ErrNotAuthenticated = errors.New("letterboxd: not authenticated")
	ErrNoLID            = errors.New("letterboxd: film id not found")
	ErrNoCSRF           = errors.New("letterboxd: missing csrf token")
)

var analyticFilmID = regexp.MustCompile(`analytic_params\['film_id'\]\s*=\s*'([^']+)'`)

// httpStatusError is a non-auth failure status from the watchlist API.
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("letterboxd: watchlist API returned %d", e.status)
}

// SlugCanonicalizer resolves a slug to the one Letterboxd serves.
type SlugCanonicalizer interface {
	ResolveCanonicalSlug(ctx context.Context, slug, title string, year int) string
}

// LIDStore caches film ids by slug.
type LIDStore interface {
	Get(ctx context.Context, slug string) (string, error)
	Save(ctx context.Context, slug, lid string) error
}

// AddRecorder remembers slugs added since the last scrape.
type AddRecorder interface {
	Add(ctx context.Context, slugs ...string) error
}

// Watchlist adds films to the signed-in member's watchlist.
type Watchlist struct {
	client   *Client
	resolver SlugCanonicalizer
	lids     LIDStore
	adds     AddRecorder
	health   HealthWriter
	logger   zerolog.Logger
}

func NewWatchlist(client *Client, resolver SlugCanonicalizer, lids LIDStore, adds AddRecorder, health HealthWriter) *Watchlist {
	return &Watchlist{
		client:   client,
		resolver: resolver,
		lids:     lids,
		adds:     adds,
		health:   health,
		logger:   logging.WithComponent("watchlist"),
	}
}

// Add puts the film on the watchlist. Failures carry a reason and the
// film page URL so the caller can open it instead.
func (w *Watchlist) Add(ctx context.Context, req models.WatchlistRequest) models.WatchlistResult {
	slug := w.resolver.ResolveCanonicalSlug(ctx, req.Slug, req.Title, req.Year)
	fallback := models.WatchlistResult{FallbackURL: titles.FilmURL(slug), Slug: slug}

	lid, err := w.resolveLID(ctx, slug)
	if err != nil || lid == "" {
		w.logger.Warn().Err(err).Str("slug", slug).Msg("Film id lookup failed")
		w.setHealth(ctx, models.HealthDegraded, ReasonParserDegraded)
		fallback.Reason = ReasonNoLID
		return fallback
	}

	err = w.patch(ctx, lid, req)
	switch {
	case err == nil:
		if err := w.adds.Add(ctx, req.Slug, slug); err != nil {
			w.logger.Warn().Err(err).Msg("Failed to record watchlist addition")
		}
		w.setHealth(ctx, models.HealthNormal, "")
		return models.WatchlistResult{Success: true, Slug: slug}
	case errors.Is(err, ErrNoCSRF):
		fallback.Reason = ReasonNoCSRF
	case errors.Is(err, ErrNotAuthenticated):
		fallback.Reason = ReasonNotAuthenticated
	default:
		var se *httpStatusError
		if errors.As(err, &se) {
			fallback.Reason = fmt.Sprintf("http-%d", se.status)
		} else {
			w.logger.Warn().Err(err).Str("slug", slug).Msg("Watchlist request failed")
			w.setHealth(ctx, models.HealthDegraded, ReasonAPIUnavailable)
			fallback.Reason = ReasonRequestFailed
		}
	}
	return fallback
}

func (w *Watchlist) patch(ctx context.Context, lid string, req models.WatchlistRequest) error {
	if req.CSRFToken == "" {
		return ErrNoCSRF
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		w.client.baseURL+"/api/v0/me/watchlist/"+lid, bytes.NewReader([]byte(`{"inWatchlist":true}`)))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("x-csrf-token", req.CSRFToken)
	if req.SessionCookie != "" {
		httpReq.Header.Set("Cookie", req.SessionCookie)
	}

	resp, err := w.client.Do(httpReq)
	if resp == nil && err != nil {
		return err
	}
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrNotAuthenticated
	default:
		return &httpStatusError{status: resp.StatusCode}
	}
}

// resolveLID returns the cached film id or reads it from the film page.
func (w *Watchlist) resolveLID(ctx context.Context, slug string) (string, error) {
	if lid, err := w.lids.Get(ctx, slug); err == nil && lid != "" {
		return lid, nil
	}

	resp, err := w.client.Get(ctx, w.client.FilmPageURL(slug))
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("letterboxd: film page returned %d", resp.StatusCode)
	}
	m := analyticFilmID.FindSubmatch(resp.Body)
	if m == nil {
		return "", ErrNoLID
	}
	lid := string(m[1])
	if err := w.lids.Save(ctx, slug, lid); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to cache film id")
	}
	return lid, nil
}

func (w *Watchlist) setHealth(ctx context.Context, status models.HealthStatus, reason string) {
	if err := w.health.SetHealth(ctx, storage.GlobalHealthScope, status, reason); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to record service health")
	}
}
