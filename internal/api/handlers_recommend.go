// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/reelrank/internal/generation"
	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/sources/tmdb"
	"github.com/tomtom215/reelrank/internal/titles"
)

// GenerationStatus is the body of GET /users/{username}/generation.
type GenerationStatus struct {
	InProgress bool       `json:"inProgress"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
}

// CanonicalResponse is the body of GET /films/{slug}/canonical.
type CanonicalResponse struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// GetRecommendations returns the cached result for a user, or 204 when
// nothing has been generated yet.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	result, err := h.deps.Recommender.GetCached(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load recommendations", err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// RefreshRecommendations starts or joins the user's generation and waits
// for it. Concurrent refreshes for the same user share one run.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	if h.deps.TMDb != nil && !h.deps.TMDb.Configured() {
		respondError(w, http.StatusServiceUnavailable, CodeTMDbNotConfigured, "Set a TMDb API key in settings first", nil)
		return
	}
	settings, err := h.deps.Settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load settings", err)
		return
	}

	result, err := h.deps.Recommender.EnsureStarted(r.Context(), username, settings)
	if err != nil {
		h.respondGenerationError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

func (h *Handler) respondGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, generation.ErrNoSeeds):
		respondError(w, http.StatusConflict, CodeNoSeeds, err.Error(), nil)
	case errors.Is(err, tmdb.ErrNotConfigured):
		respondError(w, http.StatusServiceUnavailable, CodeTMDbNotConfigured, "Set a TMDb API key in settings first", nil)
	case errors.Is(err, recommend.ErrConnectivity):
		respondError(w, http.StatusBadGateway, CodeTMDbUnreachable, "Could not reach TMDb. Check your connection or API key.", err)
	case errors.Is(err, letterboxd.ErrInvalidUsername):
		respondError(w, http.StatusBadRequest, CodeInvalidUsername, "Not a Letterboxd profile", nil)
	case r.Context().Err() != nil:
		// Client went away; the generation keeps running.
		respondError(w, http.StatusServiceUnavailable, CodeInternal, "Request cancelled", nil)
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "Generation failed", err)
	}
}

// GetGenerationStatus reports whether a generation is running for a user.
func (h *Handler) GetGenerationStatus(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	flag, err := h.deps.Recommender.InProgress(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to read generation status", err)
		return
	}
	status := GenerationStatus{InProgress: flag != nil}
	if flag != nil {
		startedAt := flag.StartedAt
		status.StartedAt = &startedAt
	}
	respondSuccess(w, r, http.StatusOK, status)
}

// GetFilmRecommendations generates recommendations seeded by one film.
// title is required; year is optional.
func (h *Handler) GetFilmRecommendations(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r)
	if !ok {
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		respondError(w, http.StatusBadRequest, CodeValidation, "title is required", nil)
		return
	}
	year := getIntParam(r, "year", 0)

	result, err := h.deps.Recommender.FilmRecommendations(r.Context(), slug, title, year)
	if err != nil {
		h.respondGenerationError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// GetCanonicalURL resolves a film's canonical Letterboxd URL. Resolution
// is best effort: on failure the requested slug is returned.
func (h *Handler) GetCanonicalURL(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	resolved, err := h.deps.Canonical.ResolveCached(r.Context(),
		getIntParam(r, "tmdbId", 0), slug, strings.TrimSpace(q.Get("title")), getIntParam(r, "year", 0))
	if err != nil {
		logRequestWarn(r, err, "Canonical slug resolution failed")
	}
	if resolved == "" {
		resolved = slug
	}
	respondSuccess(w, r, http.StatusOK, CanonicalResponse{Slug: resolved, URL: titles.FilmURL(resolved)})
}
