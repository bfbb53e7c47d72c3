// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"testing"

	"github.com/tomtom215/reelrank/internal/models"
)

func rated(slug string, r float64) models.ScrapedFilm {
	return models.ScrapedFilm{Slug: slug, Title: slug, Rating: &r}
}

func TestSelectSeeds(t *testing.T) {
	t.Parallel()

	profile := &models.UserProfile{
		LikedFilms: []models.ScrapedFilm{
			{Slug: "liked-only", Title: "Liked Only"},
			{Slug: "heat", Title: "Heat"},
		},
		RatedFilms: []models.ScrapedFilm{
			rated("heat", 4.5),
			rated("thief", 5),
			rated("ronin", 3),
		},
	}

	seeds := SelectSeeds(profile, 3)
	got := make([]string, len(seeds))
	for i, s := range seeds {
		got[i] = s.Slug
	}
	want := []string{"heat", "thief", "ronin"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SelectSeeds() order = %v, want %v", got, want)
		}
	}
	if !seeds[0].Liked || seeds[0].RatingValue() != 4.5 {
		t.Errorf("merged seed = %+v, want liked with rating 4.5", seeds[0])
	}

	if n := len(SelectSeeds(profile, 10)); n != 4 {
		t.Errorf("SelectSeeds(10) returned %d seeds, want 4", n)
	}
	if SelectSeeds(nil, 5) != nil {
		t.Error("SelectSeeds(nil) should be nil")
	}
}

func TestSeedWeights(t *testing.T) {
	t.Parallel()

	liked := rated("a", 5)
	liked.Liked = true
	seeds := []models.ScrapedFilm{liked, rated("b", 5), rated("c", 5), rated("d", 4)}

	w := SeedWeights(seeds)
	want := map[string]float64{"a": 1.2, "b": 1.1, "c": 1.1, "d": 1.0}
	for slug, ww := range want {
		if math.Abs(w[slug]-ww) > 1e-9 {
			t.Errorf("weight[%s] = %v, want %v", slug, w[slug], ww)
		}
	}

	single := SeedWeights([]models.ScrapedFilm{rated("x", 4), rated("y", 4)})
	if single["x"] != 1 || single["y"] != 1 {
		t.Errorf("single tier weights = %v, want all 1", single)
	}
	if len(SeedWeights(nil)) != 0 {
		t.Error("SeedWeights(nil) should be empty")
	}
}
