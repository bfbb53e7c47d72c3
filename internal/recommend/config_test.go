// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"testing"

	"github.com/tomtom215/reelrank/internal/models"
)

func TestPipelineConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr bool
	}{
		{"default", func(*PipelineConfig) {}, false},
		{"zero batch", func(c *PipelineConfig) { c.TMDbBatchSize = 0 }, true},
		{"negative similar", func(c *PipelineConfig) { c.SimilarPerSeed = -1 }, true},
		{"negative ratio", func(c *PipelineConfig) { c.ExternalSeedRatio = -0.1 }, true},
		{"negative reddit", func(c *PipelineConfig) { c.RedditPerSeed = -2 }, true},
		{"negative resolve", func(c *PipelineConfig) { c.ResolveMin = -1 }, true},
		{"zero lists allowed", func(c *PipelineConfig) { c.RecommendationsPerSeed = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultPipeline()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := FilmPagePipeline().Validate(); err != nil {
		t.Errorf("FilmPagePipeline().Validate() = %v", err)
	}
	if FilmPagePipeline().ExternalCanIntroduce {
		t.Error("film-page pipeline must not introduce external candidates")
	}
}

func TestOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := OptionsFromSettings(models.DefaultSettings())
	if opts.MaxSeeds != 15 || opts.MaxRecommendations != 20 || opts.PopularityFilter != 1 {
		t.Errorf("OptionsFromSettings(defaults) = %+v", opts)
	}

	filled := Options{PopularityFilter: 2}.withDefaults(DefaultFilmPageMaxRecommendations)
	if filled.MaxSeeds != models.DefaultMaxSeeds || filled.MaxRecommendations != 8 || filled.PopularityFilter != 2 {
		t.Errorf("withDefaults() = %+v", filled)
	}
}

func TestUnknownPopularityLevel(t *testing.T) {
	t.Parallel()

	for _, level := range []int{-1, 4, 7} {
		if got := (Options{PopularityFilter: level}).withDefaults(20).PopularityFilter; got != 1 {
			t.Errorf("withDefaults(level %d).PopularityFilter = %d, want 1", level, got)
		}
		if got, want := popularityPenalty(level, 20000), popularityPenalty(1, 20000); got != want {
			t.Errorf("popularityPenalty(%d) = %v, want level-1 penalty %v", level, got, want)
		}
		if WeightsFor(level) != WeightsFor(1) {
			t.Errorf("WeightsFor(%d) differs from level 1", level)
		}
	}
	if got := popularityPenalty(9, 20000); got != 26 {
		t.Errorf("popularityPenalty(9, 20000) = %v, want 26", got)
	}
}
