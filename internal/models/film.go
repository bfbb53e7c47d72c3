// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package models defines the records shared between the scraper, the
// stores, the recommendation engine and the HTTP API.
package models

import (
	"strings"
	"time"
)

// ScrapedFilm is one film entry from a Letterboxd profile page. Identity is
// Slug. Rating is on the 0.5 to 5 scale in half steps; nil means unrated.
type ScrapedFilm struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Liked         bool     `json:"liked"`
	Reviewed      bool     `json:"reviewed"`
	PosterURL     string   `json:"posterUrl,omitempty"`
	LetterboxdURL string   `json:"letterboxdUrl"`
}

// RatingValue returns the rating or 0 when unrated.
func (f ScrapedFilm) RatingValue() float64 {
	if f.Rating == nil {
		return 0
	}
	return *f.Rating
}

// PageType names the profile section a scraped page came from.
type PageType string

const (
	PageFilms     PageType = "films"
	PageLikes     PageType = "likes"
	PageRatings   PageType = "ratings"
	PageWatchlist PageType = "watchlist"
)

// Valid reports whether p is a known section.
func (p PageType) Valid() bool {
	switch p {
	case PageFilms, PageLikes, PageRatings, PageWatchlist:
		return true
	}
	return false
}

// UserProfile is the merged scrape of one user. RatedFilms only ever holds
// entries with a non-nil Rating.
type UserProfile struct {
	Username     string        `json:"username"`
	ScrapedAt    time.Time     `json:"scrapedAt"`
	WatchedFilms []ScrapedFilm `json:"watchedFilms"`
	LikedFilms   []ScrapedFilm `json:"likedFilms"`
	RatedFilms   []ScrapedFilm `json:"ratedFilms"`
	Watchlist    []ScrapedFilm `json:"watchlist"`
}

// HasSeeds reports whether the profile has any liked or rated film.
func (p *UserProfile) HasSeeds() bool {
	return p != nil && (len(p.LikedFilms) > 0 || len(p.RatedFilms) > 0)
}

// NormalizeUsername lower-cases and trims a username for use as a key.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
