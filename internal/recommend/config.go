// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"fmt"

	"github.com/tomtom215/reelrank/internal/models"
)

// DefaultFilmPageMaxRecommendations is the result size in film-page mode.
const DefaultFilmPageMaxRecommendations = 8

// Seed weighting and score normalization.
const (
	seedTopWeightBoost  = 0.2
	seedBoostMaxPoints  = 10
	normalizeIfMaxAbove = 105
)

// PipelineConfig sizes each expansion step.
type PipelineConfig struct {
	// TMDbBatchSize is how many seeds are expanded concurrently.
	TMDbBatchSize int

	// RecommendationsPerSeed and SimilarPerSeed cap the TMDb lists taken
	// from each seed.
	RecommendationsPerSeed int
	SimilarPerSeed         int

	// ExternalSeedMin and ExternalSeedRatio choose how many leading seeds
	// are sent to Reddit and Taste.io.
	ExternalSeedMin   int
	ExternalSeedRatio float64

	RedditPerSeed  int
	TasteIOPerSeed int

	// External titles resolved on TMDb are capped at
	// max(MaxRecommendations*ResolveMultiplier, ResolveMin).
	ResolveMultiplier int
	ResolveMin        int

	// ExternalCanIntroduce allows external sources to add films that TMDb
	// did not already propose.
	ExternalCanIntroduce bool
}

// DefaultPipeline is used for whole-profile generation.
func DefaultPipeline() PipelineConfig {
	return PipelineConfig{
		TMDbBatchSize:          10,
		RecommendationsPerSeed: 20,
		SimilarPerSeed:         20,
		ExternalSeedMin:        4,
		ExternalSeedRatio:      0.4,
		RedditPerSeed:          6,
		TasteIOPerSeed:         10,
		ResolveMultiplier:      3,
		ResolveMin:             40,
		ExternalCanIntroduce:   true,
	}
}

// FilmPagePipeline keeps single-film results close to that film.
func FilmPagePipeline() PipelineConfig {
	return PipelineConfig{
		TMDbBatchSize:          1,
		RecommendationsPerSeed: 10,
		SimilarPerSeed:         8,
		ExternalSeedMin:        1,
		ExternalSeedRatio:      1,
		RedditPerSeed:          3,
		TasteIOPerSeed:         4,
		ResolveMultiplier:      2,
		ResolveMin:             12,
		ExternalCanIntroduce:   false,
	}
}

// Validate checks that every step has a usable size.
//
//nolint:gocritic // value receiver keeps configs immutable
func (c PipelineConfig) Validate() error {
	switch {
	case c.TMDbBatchSize <= 0:
		return fmt.Errorf("tmdb batch size must be positive, got %d", c.TMDbBatchSize)
	case c.RecommendationsPerSeed < 0 || c.SimilarPerSeed < 0:
		return fmt.Errorf("per-seed list sizes must not be negative")
	case c.ExternalSeedMin < 0 || c.ExternalSeedRatio < 0:
		return fmt.Errorf("external seed sizing must not be negative")
	case c.RedditPerSeed < 0 || c.TasteIOPerSeed < 0:
		return fmt.Errorf("external per-seed sizes must not be negative")
	case c.ResolveMultiplier < 0 || c.ResolveMin < 0:
		return fmt.Errorf("resolve cap must not be negative")
	}
	return nil
}

// Options are the user-facing knobs of one generation. Zero fields take
// the defaults for the mode.
type Options struct {
	MaxSeeds           int
	MaxRecommendations int
	PopularityFilter   int
}

// OptionsFromSettings copies the generation knobs out of settings.
//
//nolint:gocritic // settings are passed by value throughout
func OptionsFromSettings(s models.Settings) Options {
	return Options{
		MaxSeeds:           s.MaxSeeds,
		MaxRecommendations: s.MaxRecommendations,
		PopularityFilter:   s.PopularityFilter,
	}
}

func (o Options) withDefaults(maxRecs int) Options {
	if o.MaxSeeds <= 0 {
		o.MaxSeeds = models.DefaultMaxSeeds
	}
	if o.MaxRecommendations <= 0 {
		o.MaxRecommendations = maxRecs
	}
	o.PopularityFilter = normalizeLevel(o.PopularityFilter)
	return o
}

// ScoringWeights are the maximum points of each positive component.
type ScoringWeights struct {
	Multi  float64
	Freq   float64
	Source float64
	Rating float64
}

// Max is the largest positive score the weights allow.
func (w ScoringWeights) Max() float64 {
	return w.Multi + w.Freq + w.Source + w.Rating
}

var scoringWeights = map[int]ScoringWeights{
	0: {Multi: 38, Freq: 25, Source: 25, Rating: 12},
	1: {Multi: 47.88, Freq: 31.5, Source: 31.5, Rating: 15.12},
	2: {Multi: 53.96, Freq: 35.5, Source: 35.5, Rating: 17.04},
	3: {Multi: 45.6, Freq: 30, Source: 30, Rating: 14.4},
}

// normalizeLevel maps popularity levels outside 0..3 to level 1.
func normalizeLevel(level int) int {
	if level < 0 || level > 3 {
		return 1
	}
	return level
}

// WeightsFor returns the weights for a popularity level. Unknown levels
// use level 1.
func WeightsFor(level int) ScoringWeights {
	return scoringWeights[normalizeLevel(level)]
}

// popularityPenalty returns the points subtracted for a vote count.
// Unknown levels use level 1.
func popularityPenalty(level, votes int) float64 {
	switch normalizeLevel(level) {
	case 1:
		switch {
		case votes > 10000:
			return 26
		case votes > 5000:
			return 17
		case votes > 2000:
			return 10
		}
	case 2:
		switch {
		case votes > 10000:
			return 42
		case votes > 5000:
			return 30
		case votes > 2000:
			return 18
		case votes > 500:
			return 7
		}
	case 3:
		switch {
		case votes > 2000:
			return 20
		case votes > 500:
			return 8
		}
	}
	return 0
}

// maxPenalty is the largest penalty a level can apply.
func maxPenalty(level int) float64 {
	return popularityPenalty(level, 1<<30)
}
