// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package canonical

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/titles"
)

// DefaultConcurrency bounds parallel slug resolutions per result.
const DefaultConcurrency = 4

// SlugFunc returns the canonical slug for rec, currently linked as
// currentSlug.
type SlugFunc func(ctx context.Context, rec models.Recommendation, currentSlug string) (string, error)

// Canonicalize rewrites each recommendation's Letterboxd URL to the slug
// returned by resolve, running at most concurrency resolutions at once. A
// failed resolution leaves that URL as it was. It reports whether any URL
// changed.
func Canonicalize(ctx context.Context, result *models.RecommendationResult, resolve SlugFunc, concurrency int) bool {
	if result == nil || len(result.Recommendations) == 0 {
		return false
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var changed atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		current := titles.SlugFromFilmURL(rec.LetterboxdURL)
		if current == "" {
			continue
		}
		snapshot := *rec
		g.Go(func() error {
			slug, err := resolve(gctx, snapshot, current)
			if err != nil || slug == "" || slug == current {
				return nil
			}
			rec.LetterboxdURL = titles.FilmURL(slug)
			changed.Store(true)
			return nil
		})
	}
	_ = g.Wait()
	return changed.Load()
}
