// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"testing"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/sources/tmdb"
)

func TestWeightsNetMaximum(t *testing.T) {
	t.Parallel()

	for level := 0; level <= 3; level++ {
		w := WeightsFor(level)
		if net := w.Max() - maxPenalty(level); math.Abs(net-100) > 1e-9 {
			t.Errorf("level %d: max %.2f - penalty %.2f = %.4f, want 100", level, w.Max(), maxPenalty(level), net)
		}
	}
	if WeightsFor(9) != WeightsFor(1) {
		t.Error("unknown level should use level 1 weights")
	}
}

func TestBaseScore(t *testing.T) {
	t.Parallel()

	seed := models.ScrapedFilm{Slug: "heat", Title: "Heat"}
	tests := []struct {
		name  string
		votes int
		level int
		want  float64
	}{
		// freq 12.6 + source 10.08 + rating 12.096 = 34.776
		{"level 1 obscure", 100, 1, 35},
		// 34.776 - 26
		{"level 1 blockbuster", 20000, 1, 9},
		// freq 10 + source 8 + rating 9.6
		{"level 0", 20000, 0, 28},
		// freq 14.2 + source 11.36 + rating 13.632 - 7
		{"level 2 mid", 800, 2, 32},
		{"unknown level has no penalty", 20000, 7, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set := newCandidateSet()
			set.add(&tmdb.Movie{ID: 1, Title: "Ronin", VoteAverage: 8, VoteCount: tt.votes}, seed, models.SourceTMDbRecommendation)
			if got := set.all()[0].baseScore(tt.level); got != tt.want {
				t.Errorf("baseScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeedBoost(t *testing.T) {
	t.Parallel()

	weights := map[string]float64{"top": 1.2, "mid": 1.1}
	if got := seedBoost(80, []string{"top"}, weights); got != 10 {
		t.Errorf("capped boost = %v, want 10", got)
	}
	if got := seedBoost(30, []string{"top", "unknown"}, weights); math.Abs(got-3) > 1e-9 {
		t.Errorf("averaged boost = %v, want 3", got)
	}
	if got := seedBoost(0, []string{"top"}, weights); got != 0 {
		t.Errorf("boost on zero base = %v", got)
	}

}

func TestNormalizeScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     []float64
		scaled bool
	}{
		{"empty", nil, false},
		{"top above threshold", []float64{110, 55}, true},
		{"several above threshold", []float64{120, 90, 60, 30, 7.5}, true},
		{"unsorted above threshold", []float64{40, 212.5, 0.5, 106}, true},
		{"top at threshold", []float64{105, 80, 20}, false},
		{"under threshold", []float64{100, 50}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := append([]float64(nil), tt.in...)
			out := normalizeScores(in)
			if len(out) != len(tt.in) {
				t.Fatalf("normalizeScores() len = %d, want %d", len(out), len(tt.in))
			}
			for i := range tt.in {
				if in[i] != tt.in[i] {
					t.Fatalf("input modified: %v", in)
				}
			}
			if !tt.scaled {
				for i := range tt.in {
					if out[i] != tt.in[i] {
						t.Errorf("normalizeScores(%v) = %v, want unchanged", tt.in, out)
						break
					}
				}
				return
			}

			top := 0.0
			for _, v := range out {
				top = math.Max(top, v)
			}
			if math.Abs(top-100) > 1e-9 {
				t.Errorf("top score = %v, want 100", top)
			}
			for i := range tt.in {
				for j := range tt.in {
					want := tt.in[i] / tt.in[j]
					if got := out[i] / out[j]; math.Abs(got-want) > 1e-4 {
						t.Errorf("ratio out[%d]/out[%d] = %v, want %v", i, j, got, want)
					}
				}
			}
		})
	}
}

func TestRank_ExclusionAndOrder(t *testing.T) {
	t.Parallel()

	seed := models.ScrapedFilm{Slug: "heat", Title: "Heat"}
	set := newCandidateSet()
	for _, m := range []tmdb.Movie{
		{ID: 1, Title: "Watched By ID", VoteAverage: 9},
		{ID: 2, Title: "Amélie", VoteAverage: 9},
		{ID: 3, Title: "Léon (The Professional)", VoteAverage: 9},
		{ID: 4, Title: "Blockbuster", VoteAverage: 9, VoteCount: 6000},
		{ID: 5, Title: "Beta", VoteAverage: 7},
		{ID: 6, Title: "Alpha", VoteAverage: 7},
		{ID: 7, Title: "Gamma", VoteAverage: 8},
	} {
		set.add(&m, seed, models.SourceTMDbSimilar)
	}

	x := &exclusion{
		ids:       map[int]bool{1: true},
		slugs:     map[string]bool{"am-lie": true},
		titles:    map[string]bool{"leon the professional": true},
		watchlist: map[string]bool{"beta": true},
	}

	recs := rank(set, x, map[string]float64{"heat": 1}, 3, 10)
	var got []string
	for _, r := range recs {
		got = append(got, r.Title)
	}
	want := []string{"Gamma", "Alpha", "Beta"}
	if len(got) != len(want) {
		t.Fatalf("rank() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank() = %v, want %v", got, want)
		}
	}
	if !recs[2].OnWatchlist || recs[0].OnWatchlist {
		t.Errorf("watchlist flags = %v/%v", recs[0].OnWatchlist, recs[2].OnWatchlist)
	}
	if recs[0].LetterboxdURL != "https://letterboxd.com/film/gamma/" {
		t.Errorf("LetterboxdURL = %q", recs[0].LetterboxdURL)
	}

	if top := rank(set, x, nil, 3, 1); len(top) != 1 {
		t.Errorf("truncated rank returned %d", len(top))
	}
}
