// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package models

// Default generation settings.
const (
	DefaultMaxSeeds           = 15
	DefaultMaxRecommendations = 20
	DefaultPopularityFilter   = 1
)

// Settings are the user-editable options that affect generation.
type Settings struct {
	TMDbAPIKey         string `json:"tmdbApiKey,omitempty"`
	LetterboxdUsername string `json:"letterboxdUsername,omitempty"`
	MaxSeeds           int    `json:"maxSeeds" validate:"min=1,max=100"`
	MaxRecommendations int    `json:"maxRecommendations" validate:"min=1,max=100"`
	PopularityFilter   int    `json:"popularityFilter" validate:"min=0,max=3"`
}

// DefaultSettings returns settings with default limits and no credentials.
func DefaultSettings() Settings {
	return Settings{
		MaxSeeds:           DefaultMaxSeeds,
		MaxRecommendations: DefaultMaxRecommendations,
		PopularityFilter:   DefaultPopularityFilter,
	}
}

// SettingsUpdate is a partial update; nil fields are left unchanged.
type SettingsUpdate struct {
	TMDbAPIKey         *string `json:"tmdbApiKey,omitempty" validate:"omitempty,max=512"`
	LetterboxdUsername *string `json:"letterboxdUsername,omitempty" validate:"omitempty,lbusername"`
	MaxSeeds           *int    `json:"maxSeeds,omitempty" validate:"omitempty,min=1,max=100"`
	MaxRecommendations *int    `json:"maxRecommendations,omitempty" validate:"omitempty,min=1,max=100"`
	PopularityFilter   *int    `json:"popularityFilter,omitempty" validate:"omitempty,min=0,max=3"`
}

// Apply returns s with the non-nil fields of u applied.
func (u SettingsUpdate) Apply(s Settings) Settings {
	if u.TMDbAPIKey != nil {
		s.TMDbAPIKey = *u.TMDbAPIKey
	}
	if u.LetterboxdUsername != nil {
		s.LetterboxdUsername = *u.LetterboxdUsername
	}
	if u.MaxSeeds != nil {
		s.MaxSeeds = *u.MaxSeeds
	}
	if u.MaxRecommendations != nil {
		s.MaxRecommendations = *u.MaxRecommendations
	}
	if u.PopularityFilter != nil {
		s.PopularityFilter = *u.PopularityFilter
	}
	return s
}
