// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package canonical decides which Letterboxd slug a recommendation should
link to.

Letterboxd disambiguates films that share a title with year suffixes
("heat-1995") and renames slugs over time, so the slug derived from a
TMDb title is only a guess. Resolve looks the guess up in a two-level
cache (by TMDb id, then by slug), re-verifying cached entries against the
film page when title context is available, and only then fetches. Each
fresh resolution produces a Patch that records the TMDb id mapping, the
requested slug mapping and a self-mapping for the resolved slug, so a
second lookup of an already canonical slug is a cache hit.

Resolve never touches storage. Service pairs it with a persisted cache.
*/
package canonical

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tomtom215/reelrank/internal/models"
)

// Source reports where a resolved slug came from.
type Source string

const (
	SourceTMDbCache Source = "tmdb-cache"
	SourceSlugCache Source = "slug-cache"
	SourceFresh     Source = "fresh"
)

// SlugEntry maps a requested slug to its canonical slug.
type SlugEntry struct {
	From string
	To   string
}

// Patch is a set of cache writes produced by a resolution. A zero TMDbID
// means the TMDb map is left alone.
type Patch struct {
	TMDbID      int
	TMDbSlug    string
	SlugEntries []SlugEntry
}

// Input describes one resolution.
type Input struct {
	Cache         models.CanonicalSlugCache
	TMDbID        int
	RequestedSlug string

	// Contextual is set when the caller knows the film's title or year.
	// Cached entries are then re-verified before being trusted.
	Contextual bool

	VerifyContext func(ctx context.Context, slug string) bool
	ResolveFresh  func(ctx context.Context) (string, error)

	// ConfirmResolvedForCache, when set, replaces VerifyContext for the
	// extra check on a fresh result that did not redirect.
	ConfirmResolvedForCache func(ctx context.Context, slug string) bool
}

// Result is the outcome of Resolve. Patch is nil when nothing should be
// written.
type Result struct {
	ResolvedSlug string
	Patch        *Patch
	Source       Source
}

// Resolve picks the canonical slug for in. The only error it returns is
// one from in.ResolveFresh.
func Resolve(ctx context.Context, in Input) (Result, error) {
	verify := func(slug string) bool {
		if in.VerifyContext == nil {
			return false
		}
		return in.VerifyContext(ctx, slug)
	}

	if cached, ok := in.Cache.ByTMDbID[in.TMDbID]; ok && cached != "" {
		if !in.Contextual || verify(cached) {
			return Result{ResolvedSlug: cached, Source: SourceTMDbCache}, nil
		}
	}

	if cached, ok := in.Cache.BySlug[in.RequestedSlug]; ok && cached != "" {
		if !in.Contextual {
			return Result{ResolvedSlug: cached, Source: SourceSlugCache}, nil
		}
		if verify(cached) {
			res := Result{ResolvedSlug: cached, Source: SourceSlugCache}
			if in.Cache.ByTMDbID[in.TMDbID] != cached {
				res.Patch = &Patch{TMDbID: in.TMDbID, TMDbSlug: cached}
			}
			return res, nil
		}
	}

	if in.ResolveFresh == nil {
		return Result{}, fmt.Errorf("resolve %s: no fresh resolver", in.RequestedSlug)
	}
	fresh, err := in.ResolveFresh(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", in.RequestedSlug, err)
	}

	// A fresh result equal to the request may just mean nothing redirected.
	// Only cache it once the page is confirmed to be the right film.
	if in.Contextual && fresh == in.RequestedSlug {
		confirm := in.ConfirmResolvedForCache
		if confirm == nil {
			confirm = in.VerifyContext
		}
		if confirm == nil || !confirm(ctx, fresh) {
			return Result{ResolvedSlug: fresh, Source: SourceFresh}, nil
		}
	}

	return Result{
		ResolvedSlug: fresh,
		Source:       SourceFresh,
		Patch: &Patch{
			TMDbID:   in.TMDbID,
			TMDbSlug: fresh,
			SlugEntries: []SlugEntry{
				{From: in.RequestedSlug, To: fresh},
				{From: fresh, To: fresh},
			},
		},
	}, nil
}

// Apply returns a copy of cache with patch written into it. The input maps
// are not modified.
func Apply(cache models.CanonicalSlugCache, patch *Patch) models.CanonicalSlugCache {
	next := models.CanonicalSlugCache{
		ByTMDbID: make(map[int]string, len(cache.ByTMDbID)+1),
		BySlug:   make(map[string]string, len(cache.BySlug)+2),
	}
	for k, v := range cache.ByTMDbID {
		next.ByTMDbID[k] = v
	}
	for k, v := range cache.BySlug {
		next.BySlug[k] = v
	}
	if patch == nil {
		return next
	}
	if patch.TMDbSlug != "" {
		next.ByTMDbID[patch.TMDbID] = patch.TMDbSlug
	}
	for _, e := range patch.SlugEntries {
		next.BySlug[e.From] = e.To
	}
	return next
}

// tmdbKey is the id format used in logs.
func tmdbKey(id int) string {
	return strconv.Itoa(id)
}
