// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reelrank/internal/models"
)

// Cache lifetimes.
const (
	ProfileTTL = 24 * time.Hour
	ResultTTL  = 12 * time.Hour
)

const (
	profileKeyPrefix = "profile:"
	resultKeyPrefix  = "recs:"
)

// ProfileStore keeps one merged profile per lowercase username. A profile
// expires ProfileTTL after its ScrapedAt.
type ProfileStore struct {
	ttl   *TTLStore[models.UserProfile]
	locks *KeyedMutex
	now   func() time.Time
}

// NewProfileStore returns a ProfileStore that serializes writers through locks.
func NewProfileStore(kv Store, locks *KeyedMutex) *ProfileStore {
	return &ProfileStore{
		ttl:   NewTTLStore[models.UserProfile](kv, ProfileTTL),
		locks: locks,
		now:   time.Now,
	}
}

// Get returns the profile or nil when absent or expired.
func (s *ProfileStore) Get(ctx context.Context, username string) (*models.UserProfile, error) {
	p, ok, err := s.ttl.Get(ctx, profileKeyPrefix+models.NormalizeUsername(username))
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// Save overwrites the stored profile.
func (s *ProfileStore) Save(ctx context.Context, p *models.UserProfile) error {
	key := profileKeyPrefix + models.NormalizeUsername(p.Username)
	return s.ttl.SetAt(ctx, key, *p, p.ScrapedAt)
}

// UpdateFilms merges films into the list for pageType, replacing entries
// with the same slug, and stamps ScrapedAt. Ratings pages only keep films
// that carry a rating.
func (s *ProfileStore) UpdateFilms(ctx context.Context, username string, pageType models.PageType, films []models.ScrapedFilm) (*models.UserProfile, error) {
	if !pageType.Valid() {
		return nil, fmt.Errorf("unknown page type %q", pageType)
	}

	var out *models.UserProfile
	err := s.locks.WithLock(ctx, profileKeyPrefix+models.NormalizeUsername(username), func() error {
		p, err := s.Get(ctx, username)
		if err != nil {
			return err
		}
		if p == nil {
			p = &models.UserProfile{Username: username, ScrapedAt: s.now()}
		}

		switch pageType {
		case models.PageFilms:
			p.WatchedFilms = mergeBySlug(p.WatchedFilms, films)
		case models.PageLikes:
			p.LikedFilms = mergeBySlug(p.LikedFilms, films)
		case models.PageRatings:
			rated := make([]models.ScrapedFilm, 0, len(films))
			for _, f := range films {
				if f.Rating != nil {
					rated = append(rated, f)
				}
			}
			p.RatedFilms = mergeBySlug(p.RatedFilms, rated)
		case models.PageWatchlist:
			p.Watchlist = mergeBySlug(p.Watchlist, films)
		}

		p.ScrapedAt = s.now()
		if err := s.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// mergeBySlug keeps existing order, replaces matching slugs in place and
// appends new ones.
func mergeBySlug(existing, incoming []models.ScrapedFilm) []models.ScrapedFilm {
	idx := make(map[string]int, len(existing)+len(incoming))
	out := make([]models.ScrapedFilm, 0, len(existing)+len(incoming))
	for _, f := range existing {
		if i, ok := idx[f.Slug]; ok {
			out[i] = f
			continue
		}
		idx[f.Slug] = len(out)
		out = append(out, f)
	}
	for _, f := range incoming {
		if i, ok := idx[f.Slug]; ok {
			out[i] = f
			continue
		}
		idx[f.Slug] = len(out)
		out = append(out, f)
	}
	return out
}

// ResultStore caches one RecommendationResult per lowercase username,
// expiring ResultTTL after GeneratedAt.
type ResultStore struct {
	ttl *TTLStore[models.RecommendationResult]
}

// NewResultStore returns a ResultStore backed by kv.
func NewResultStore(kv Store) *ResultStore {
	return &ResultStore{ttl: NewTTLStore[models.RecommendationResult](kv, ResultTTL)}
}

// Get returns the cached result or nil.
func (s *ResultStore) Get(ctx context.Context, username string) (*models.RecommendationResult, error) {
	r, ok, err := s.ttl.Get(ctx, resultKeyPrefix+models.NormalizeUsername(username))
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// Save overwrites the cached result for r.Username.
func (s *ResultStore) Save(ctx context.Context, r *models.RecommendationResult) error {
	return s.ttl.SetAt(ctx, resultKeyPrefix+models.NormalizeUsername(r.Username), *r, r.GeneratedAt)
}

// Remove drops the cached result.
func (s *ResultStore) Remove(ctx context.Context, username string) error {
	return s.ttl.Remove(ctx, resultKeyPrefix+models.NormalizeUsername(username))
}

// SetClock overrides the time source. Intended for tests.
func (s *ProfileStore) SetClock(now func() time.Time) {
	s.now = now
	s.ttl.SetClock(now)
}

// SetClock overrides the time source. Intended for tests.
func (s *ResultStore) SetClock(now func() time.Time) {
	s.ttl.SetClock(now)
}
