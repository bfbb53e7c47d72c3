// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package models

import "time"

// HitSource identifies which upstream surfaced a candidate for a seed.
type HitSource string

const (
	SourceTMDbRecommendation HitSource = "tmdb-recommendation"
	SourceTMDbSimilar        HitSource = "tmdb-similar"
	SourceReddit             HitSource = "reddit"
	SourceTasteIO            HitSource = "tasteio"
)

// Hit is one source-to-seed contribution toward a candidate.
type Hit struct {
	Source        HitSource `json:"source"`
	SeedFilmTitle string    `json:"seedFilmTitle"`
	SeedFilmSlug  string    `json:"seedFilmSlug"`
}

// Recommendation is a ranked film ready for display.
type Recommendation struct {
	TMDbID        int      `json:"tmdbId"`
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Overview      string   `json:"overview"`
	PosterPath    string   `json:"posterPath,omitempty"`
	TMDbRating    float64  `json:"tmdbRating"`
	Genres        []string `json:"genres"`
	Score         int      `json:"score"`
	Hits          []Hit    `json:"hits"`
	OnWatchlist   bool     `json:"onWatchlist"`
	LetterboxdURL string   `json:"letterboxdUrl"`
}

// SourceError describes a failure of an optional external source.
type SourceError struct {
	Source        string `json:"source"`
	Error         string `json:"error"`
	SeedsAffected int    `json:"seedsAffected"`
}

// RecommendationResult is the cached output of one generation.
type RecommendationResult struct {
	Recommendations     []Recommendation `json:"recommendations"`
	GeneratedAt         time.Time        `json:"generatedAt"`
	SeedCount           int              `json:"seedCount"`
	Username            string           `json:"username"`
	SourceErrors        []SourceError    `json:"sourceErrors,omitempty"`
	SettingsFingerprint string           `json:"settingsFingerprint,omitempty"`
}

// GenerationFlag marks a generation in progress for a user. It survives
// restarts, unlike the in-process single-flight registry.
type GenerationFlag struct {
	Username  string    `json:"username"`
	StartedAt time.Time `json:"startedAt"`
}

// HealthStatus is normal or degraded.
type HealthStatus string

const (
	HealthNormal   HealthStatus = "normal"
	HealthDegraded HealthStatus = "degraded"
)

// ServiceHealth is a best-effort indicator shown to the user.
type ServiceHealth struct {
	Status    HealthStatus `json:"status"`
	Reason    string       `json:"reason,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// GenerationProgress is published while a generation runs.
// Error is set on the final event of a failed generation.
type GenerationProgress struct {
	Username string `json:"username"`
	Stage    string `json:"stage"`
	Percent  int    `json:"percent"`
	Error    string `json:"error,omitempty"`
}
