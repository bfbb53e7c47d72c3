// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"sort"

	"github.com/tomtom215/reelrank/internal/models"
)

// SeedScore ranks a film as a seed: its rating plus half a point when
// liked.
func SeedScore(f models.ScrapedFilm) float64 {
	s := f.RatingValue()
	if f.Liked {
		s += 0.5
	}
	return s
}

// SelectSeeds merges liked and rated films by slug and returns the
// maxSeeds best by SeedScore. Liked entries keep a rating seen on the
// ratings page and rated entries keep the like flag. Ties keep first-seen
// order.
func SelectSeeds(profile *models.UserProfile, maxSeeds int) []models.ScrapedFilm {
	if profile == nil {
		return nil
	}

	var order []string
	bySlug := make(map[string]models.ScrapedFilm)
	put := func(f models.ScrapedFilm) {
		if _, ok := bySlug[f.Slug]; !ok {
			order = append(order, f.Slug)
		}
		bySlug[f.Slug] = f
	}

	for _, f := range profile.LikedFilms {
		if existing, ok := bySlug[f.Slug]; ok && existing.Rating != nil {
			f.Rating = existing.Rating
		}
		f.Liked = true
		put(f)
	}
	for _, f := range profile.RatedFilms {
		if existing, ok := bySlug[f.Slug]; ok {
			f.Liked = existing.Liked
		}
		put(f)
	}

	films := make([]models.ScrapedFilm, 0, len(order))
	for _, slug := range order {
		films = append(films, bySlug[slug])
	}
	sort.SliceStable(films, func(i, j int) bool {
		return SeedScore(films[i]) > SeedScore(films[j])
	})

	if maxSeeds >= 0 && len(films) > maxSeeds {
		films = films[:maxSeeds]
	}
	return films
}

// SeedWeights maps each seed slug to its weight. Seeds are grouped by
// SeedScore; the best group gets 1+seedTopWeightBoost, the worst 1, and
// the groups between are spaced linearly. A single group weighs 1.
func SeedWeights(seeds []models.ScrapedFilm) map[string]float64 {
	weights := make(map[string]float64, len(seeds))
	if len(seeds) == 0 {
		return weights
	}

	groups := make(map[float64][]string)
	var scores []float64
	for _, s := range seeds {
		score := SeedScore(s)
		if _, ok := groups[score]; !ok {
			scores = append(scores, score)
		}
		groups[score] = append(groups[score], s.Slug)
	}

	if len(scores) == 1 {
		for _, s := range seeds {
			weights[s.Slug] = 1
		}
		return weights
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	last := float64(len(scores) - 1)
	for i, score := range scores {
		w := 1 + seedTopWeightBoost*(1-float64(i)/last)
		for _, slug := range groups[score] {
			weights[slug] = w
		}
	}
	return weights
}
