// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/models"
)

// ProfileSummary counts what a profile holds after an ingest.
type ProfileSummary struct {
	Username  string    `json:"username"`
	ScrapedAt time.Time `json:"scrapedAt"`
	Watched   int       `json:"watched"`
	Liked     int       `json:"liked"`
	Rated     int       `json:"rated"`
	Watchlist int       `json:"watchlist"`
	HasSeeds  bool      `json:"hasSeeds"`
}

func summarize(p *models.UserProfile) ProfileSummary {
	return ProfileSummary{
		Username:  p.Username,
		ScrapedAt: p.ScrapedAt,
		Watched:   len(p.WatchedFilms),
		Liked:     len(p.LikedFilms),
		Rated:     len(p.RatedFilms),
		Watchlist: len(p.Watchlist),
		HasSeeds:  p.HasSeeds(),
	}
}

// ScrapeProfile fetches every section of a user's profile from Letterboxd.
// Pages past the first are queued for the background page fetcher.
func (h *Handler) ScrapeProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	report, err := h.deps.Scraper.ScrapeProfile(r.Context(), username)
	switch {
	case errors.Is(err, letterboxd.ErrInvalidUsername):
		respondError(w, http.StatusBadRequest, CodeInvalidUsername, "Not a Letterboxd profile", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, CodeInternal, "Profile scrape failed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, report)
}

// IngestPage merges one profile page scraped by a client. The username in
// the path wins over the body.
func (h *Handler) IngestPage(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	var page models.PageIngest
	page.Username = username
	if !decodeJSON(w, r, &page) {
		return
	}
	page.Username = username

	profile, err := h.deps.Scraper.IngestPage(r.Context(), page)
	switch {
	case errors.Is(err, letterboxd.ErrInvalidUsername):
		respondError(w, http.StatusBadRequest, CodeInvalidUsername, "Not a Letterboxd profile", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to save page", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, summarize(profile))
}

// GetProfile returns the stored profile, or 404.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}
	profile, err := h.deps.Profiles.Get(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to load profile", err)
		return
	}
	if profile == nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "No stored profile for "+username, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, profile)
}
