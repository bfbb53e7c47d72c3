// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package canonical

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
)

// CacheStore persists the slug cache. *storage.SlugCacheStore satisfies it.
type CacheStore interface {
	Load(ctx context.Context) (models.CanonicalSlugCache, error)
	Update(ctx context.Context, fn func(models.CanonicalSlugCache) models.CanonicalSlugCache) error
}

// SlugResolver talks to Letterboxd. *letterboxd.Resolver satisfies it.
type SlugResolver interface {
	ResolveCanonicalSlug(ctx context.Context, slug, title string, year int) string
	VerifyContext(ctx context.Context, slug, title string, year int) bool
}

// Service resolves slugs through the persisted cache.
type Service struct {
	store       CacheStore
	resolver    SlugResolver
	concurrency int
	logger      zerolog.Logger
}

// NewService creates a Service. concurrency <= 0 uses DefaultConcurrency.
func NewService(store CacheStore, resolver SlugResolver, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		store:       store,
		resolver:    resolver,
		concurrency: concurrency,
		logger:      logging.WithComponent("canonical"),
	}
}

// ResolveCached returns the canonical slug for a film. Title and year
// (0 when unknown) are used to verify cached and fresh results. A cache
// write failure is logged and the resolved slug is still returned.
func (s *Service) ResolveCached(ctx context.Context, tmdbID int, slug, title string, year int) (string, error) {
	cache, err := s.store.Load(ctx)
	if err != nil {
		return slug, err
	}

	res, err := Resolve(ctx, Input{
		Cache:         cache,
		TMDbID:        tmdbID,
		RequestedSlug: slug,
		Contextual:    title != "" || year > 0,
		VerifyContext: func(ctx context.Context, candidate string) bool {
			return s.resolver.VerifyContext(ctx, candidate, title, year)
		},
		ResolveFresh: func(ctx context.Context) (string, error) {
			return s.resolver.ResolveCanonicalSlug(ctx, slug, title, year), nil
		},
	})
	if err != nil {
		return slug, err
	}

	if res.Patch != nil {
		patch := res.Patch
		if err := s.store.Update(ctx, func(latest models.CanonicalSlugCache) models.CanonicalSlugCache {
			return Apply(latest, patch)
		}); err != nil {
			s.logger.Warn().Err(err).Str("slug", slug).Str("tmdb_id", tmdbKey(tmdbID)).Msg("Failed to persist canonical slug")
		}
	}

	s.logger.Debug().
		Str("requested", slug).
		Str("resolved", res.ResolvedSlug).
		Str("source", string(res.Source)).
		Msg("Resolved canonical slug")
	return res.ResolvedSlug, nil
}

// Canonicalize rewrites result's URLs through ResolveCached.
func (s *Service) Canonicalize(ctx context.Context, result *models.RecommendationResult) bool {
	return Canonicalize(ctx, result, func(ctx context.Context, rec models.Recommendation, current string) (string, error) {
		return s.ResolveCached(ctx, rec.TMDbID, current, rec.Title, rec.Year)
	}, s.concurrency)
}
