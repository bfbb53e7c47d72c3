// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package models

// CanonicalSlugCache maps TMDb ids and requested slugs to the canonical
// Letterboxd slug. Every resolved slug is also stored as its own entry in
// BySlug so resolving an already canonical slug is a cache hit.
type CanonicalSlugCache struct {
	ByTMDbID map[int]string    `json:"byTmdbId"`
	BySlug   map[string]string `json:"bySlug"`
}

// NewCanonicalSlugCache returns an empty cache with allocated maps.
func NewCanonicalSlugCache() CanonicalSlugCache {
	return CanonicalSlugCache{ByTMDbID: map[int]string{}, BySlug: map[string]string{}}
}
