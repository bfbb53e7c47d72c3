// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"

	"github.com/tomtom215/reelrank/internal/models"
)

// Keys for caches that never expire.
const (
	tmdbIDCacheKey    = "tmdb_ids"
	lidCacheKey       = "lids"
	watchlistAddsKey  = "watchlist_adds"
	canonicalSlugsKey = "canonical_slug_cache"
)

// IDCache maps Letterboxd slugs to TMDb ids. Mappings are permanent.
type IDCache struct {
	store *TTLStore[map[string]int]
	locks *KeyedMutex
}

func NewIDCache(kv Store, locks *KeyedMutex) *IDCache {
	return &IDCache{store: NewTTLStore[map[string]int](kv, 0), locks: locks}
}

// All returns every known mapping.
func (c *IDCache) All(ctx context.Context) (map[string]int, error) {
	m, ok, err := c.store.Get(ctx, tmdbIDCacheKey)
	if err != nil {
		return nil, err
	}
	if !ok || m == nil {
		return map[string]int{}, nil
	}
	return m, nil
}

// Save merges mappings into the cache.
func (c *IDCache) Save(ctx context.Context, mappings map[string]int) error {
	if len(mappings) == 0 {
		return nil
	}
	return c.locks.WithLock(ctx, tmdbIDCacheKey, func() error {
		m, err := c.All(ctx)
		if err != nil {
			return err
		}
		for slug, id := range mappings {
			m[slug] = id
		}
		return c.store.Set(ctx, tmdbIDCacheKey, m)
	})
}

// LIDCache maps Letterboxd slugs to the site's internal film id used by the
// watchlist endpoint.
type LIDCache struct {
	store *TTLStore[map[string]string]
	locks *KeyedMutex
}

func NewLIDCache(kv Store, locks *KeyedMutex) *LIDCache {
	return &LIDCache{store: NewTTLStore[map[string]string](kv, 0), locks: locks}
}

// Get returns the LID for slug, or "" when unknown.
func (c *LIDCache) Get(ctx context.Context, slug string) (string, error) {
	m, _, err := c.store.Get(ctx, lidCacheKey)
	if err != nil {
		return "", err
	}
	return m[slug], nil
}

// Save records the LID for slug.
func (c *LIDCache) Save(ctx context.Context, slug, lid string) error {
	return c.locks.WithLock(ctx, lidCacheKey, func() error {
		m, _, err := c.store.Get(ctx, lidCacheKey)
		if err != nil {
			return err
		}
		if m == nil {
			m = map[string]string{}
		}
		m[slug] = lid
		return c.store.Set(ctx, lidCacheKey, m)
	})
}

// WatchlistAdds remembers slugs added to the watchlist since the last full
// profile scrape, so results can flag them before the next scrape.
type WatchlistAdds struct {
	store *TTLStore[[]string]
	locks *KeyedMutex
}

func NewWatchlistAdds(kv Store, locks *KeyedMutex) *WatchlistAdds {
	return &WatchlistAdds{store: NewTTLStore[[]string](kv, 0), locks: locks}
}

// Add records slugs, ignoring duplicates and empty strings.
func (w *WatchlistAdds) Add(ctx context.Context, slugs ...string) error {
	return w.locks.WithLock(ctx, watchlistAddsKey, func() error {
		list, _, err := w.store.Get(ctx, watchlistAddsKey)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, len(list))
		for _, s := range list {
			seen[s] = true
		}
		for _, s := range slugs {
			if s != "" && !seen[s] {
				seen[s] = true
				list = append(list, s)
			}
		}
		return w.store.Set(ctx, watchlistAddsKey, list)
	})
}

// All returns the recorded slugs as a set.
func (w *WatchlistAdds) All(ctx context.Context) (map[string]bool, error) {
	list, _, err := w.store.Get(ctx, watchlistAddsKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(list))
	for _, s := range list {
		out[s] = true
	}
	return out, nil
}

// Clear forgets all recorded adds.
func (w *WatchlistAdds) Clear(ctx context.Context) error {
	return w.store.Remove(ctx, watchlistAddsKey)
}

// SlugCacheStore persists the canonical slug cache.
type SlugCacheStore struct {
	store *TTLStore[models.CanonicalSlugCache]
	locks *KeyedMutex
}

func NewSlugCacheStore(kv Store, locks *KeyedMutex) *SlugCacheStore {
	return &SlugCacheStore{store: NewTTLStore[models.CanonicalSlugCache](kv, 0), locks: locks}
}

// Load returns the current cache with non-nil maps.
func (s *SlugCacheStore) Load(ctx context.Context) (models.CanonicalSlugCache, error) {
	c, _, err := s.store.Get(ctx, canonicalSlugsKey)
	if err != nil {
		return models.NewCanonicalSlugCache(), err
	}
	if c.ByTMDbID == nil {
		c.ByTMDbID = map[int]string{}
	}
	if c.BySlug == nil {
		c.BySlug = map[string]string{}
	}
	return c, nil
}

// Update re-reads the latest cache under lock, applies fn and persists the
// result.
func (s *SlugCacheStore) Update(ctx context.Context, fn func(models.CanonicalSlugCache) models.CanonicalSlugCache) error {
	return s.locks.WithLock(ctx, canonicalSlugsKey, func() error {
		current, err := s.Load(ctx)
		if err != nil {
			return err
		}
		return s.store.Set(ctx, canonicalSlugsKey, fn(current))
	})
}
