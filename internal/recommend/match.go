// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"strings"

	"github.com/tomtom215/reelrank/internal/sources/tmdb"
	"github.com/tomtom215/reelrank/internal/titles"
)

// minTokenOverlap is the share of unique tokens two near-equal titles must
// have in common.
const minTokenOverlap = 0.8

// IsConfidentMatch reports whether movie is the film a free-text title
// (and optional year, 0 when unknown) refers to.
func IsConfidentMatch(title string, year int, movie *tmdb.Movie) bool {
	if movie == nil {
		return false
	}
	query := titles.NormalizeForMatch(title)
	candidate := titles.NormalizeForMatch(movie.Title)
	if query == "" || candidate == "" {
		return false
	}

	if movieYear := movie.Year(); year > 0 && movieYear > 0 && movieYear != year {
		return false
	}
	if query == candidate {
		return true
	}

	qTokens := strings.Fields(query)
	cTokens := strings.Fields(candidate)
	if len(qTokens) < 2 || len(cTokens) < 2 {
		return false
	}
	if qTokens[0] != cTokens[0] {
		return false
	}
	return tokenOverlap(qTokens, cTokens) >= minTokenOverlap
}

// tokenOverlap is the count of shared unique tokens over the larger
// unique set.
func tokenOverlap(a, b []string) float64 {
	aSet := make(map[string]struct{}, len(a))
	for _, t := range a {
		aSet[t] = struct{}{}
	}
	bSet := make(map[string]struct{}, len(b))
	for _, t := range b {
		bSet[t] = struct{}{}
	}
	if len(aSet) == 0 || len(bSet) == 0 {
		return 0
	}
	shared := 0
	for t := range aSet {
		if _, ok := bSet[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(aSet), len(bSet)))
}
