// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"math"
	"sort"

	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/sources/tmdb"
	"github.com/tomtom215/reelrank/internal/titles"
)

// candidate is a film proposed by at least one source. Hits accumulate
// without deduplication.
type candidate struct {
	tmdbID     int
	title      string
	year       int
	overview   string
	posterPath string
	rating     float64
	voteCount  int
	popularity float64
	genres     []string
	hits       []models.Hit
	slug       string
}

// candidateSet keeps candidates in first-seen order.
type candidateSet struct {
	byID  map[int]*candidate
	order []int
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byID: make(map[int]*candidate)}
}

func (s *candidateSet) has(id int) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *candidateSet) len() int {
	return len(s.order)
}

// add records a hit for movie from seed, creating the candidate on first
// sight.
func (s *candidateSet) add(movie *tmdb.Movie, seed models.ScrapedFilm, source models.HitSource) {
	hit := models.Hit{Source: source, SeedFilmTitle: seed.Title, SeedFilmSlug: seed.Slug}
	if c, ok := s.byID[movie.ID]; ok {
		c.hits = append(c.hits, hit)
		return
	}
	s.byID[movie.ID] = &candidate{
		tmdbID:     movie.ID,
		title:      movie.Title,
		year:       movie.Year(),
		overview:   movie.Overview,
		posterPath: movie.PosterPath,
		rating:     movie.VoteAverage,
		voteCount:  movie.VoteCount,
		popularity: movie.Popularity,
		genres:     tmdb.GenreNames(movie.GenreIDs),
		hits:       []models.Hit{hit},
		slug:       titles.Slugify(movie.Title),
	}
	s.order = append(s.order, movie.ID)
}

func (s *candidateSet) all() []*candidate {
	out := make([]*candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// uniqueSeeds returns the distinct seed slugs in hit order.
func (c *candidate) uniqueSeeds() []string {
	seen := make(map[string]bool, len(c.hits))
	var out []string
	for _, h := range c.hits {
		if !seen[h.SeedFilmSlug] {
			seen[h.SeedFilmSlug] = true
			out = append(out, h.SeedFilmSlug)
		}
	}
	return out
}

// baseScore scores a candidate at a popularity level, clamped to [0,100]
// and rounded.
func (c *candidate) baseScore(level int) float64 {
	w := WeightsFor(level)

	score := math.Min(w.Freq, float64(len(c.uniqueSeeds()))*w.Freq/2.5)

	counts := make(map[models.HitSource]int, 4)
	for _, h := range c.hits {
		counts[h.Source]++
	}
	raw := float64(counts[models.SourceTMDbRecommendation]*8 +
		counts[models.SourceTasteIO]*8 +
		counts[models.SourceReddit]*6 +
		counts[models.SourceTMDbSimilar]*5)
	score += math.Min(w.Source, raw*w.Source/25)

	score += c.rating / 10 * w.Rating
	score += math.Min(w.Multi, float64(len(counts)-1)*w.Multi/2)
	score -= popularityPenalty(level, c.voteCount)

	return roundClamp(score)
}

// seedBoost returns the bonus points for the seeds a candidate came from:
// base times the average weight above 1, capped at seedBoostMaxPoints.
func seedBoost(base float64, seedSlugs []string, weights map[string]float64) float64 {
	if base <= 0 || len(seedSlugs) == 0 {
		return 0
	}
	total := 0.0
	for _, slug := range seedSlugs {
		w, ok := weights[slug]
		if !ok {
			w = 1
		}
		total += math.Max(0, w-1)
	}
	avg := total / float64(len(seedSlugs))
	if avg <= 0 {
		return 0
	}
	return math.Min(seedBoostMaxPoints, base*avg)
}

// normalizeScores rescales scores to a maximum of 100 when the largest
// exceeds normalizeIfMaxAbove.
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}
	top := scores[0]
	for _, s := range scores[1:] {
		top = math.Max(top, s)
	}
	if math.IsInf(top, 0) || math.IsNaN(top) || top <= normalizeIfMaxAbove {
		return scores
	}
	scale := 100 / top
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s * scale
	}
	return out
}

// roundClamp clamps to [0,100] and rounds.
func roundClamp(v float64) float64 {
	return math.Round(math.Max(0, math.Min(100, v)))
}

// exclusion is the watched and watchlist state candidates are checked
// against.
type exclusion struct {
	ids       map[int]bool
	slugs     map[string]bool
	titles    map[string]bool
	watchlist map[string]bool
}

func (x *exclusion) watched(c *candidate, bare, legacy string) bool {
	if x.ids[c.tmdbID] {
		return true
	}
	if x.slugs[c.slug] {
		return true
	}
	if bare != c.slug && x.slugs[bare] {
		return true
	}
	if legacy != bare && x.slugs[legacy] {
		return true
	}
	norm := titles.NormalizeForComparison(c.title)
	return norm != "" && x.titles[norm]
}

func (x *exclusion) onWatchlist(c *candidate, bare, legacy string) bool {
	return x.watchlist[c.slug] || x.watchlist[bare] || (legacy != bare && x.watchlist[legacy])
}

type ranked struct {
	rec   models.Recommendation
	base  float64
	final float64
}

// rank filters, scores and orders the candidates and returns the top
// limit recommendations.
func rank(set *candidateSet, x *exclusion, weights map[string]float64, level, limit int) []models.Recommendation {
	var items []ranked
	var boosted []float64

	for _, c := range set.all() {
		bare := titles.Slugify(c.title)
		legacy := titles.LegacySlug(c.title)
		if x.watched(c, bare, legacy) {
			continue
		}
		if level == 3 && c.voteCount > 5000 {
			continue
		}

		base := c.baseScore(level)
		items = append(items, ranked{
			base: base,
			rec: models.Recommendation{
				TMDbID:        c.tmdbID,
				Title:         c.title,
				Year:          c.year,
				Overview:      c.overview,
				PosterPath:    c.posterPath,
				TMDbRating:    c.rating,
				Genres:        c.genres,
				Hits:          c.hits,
				OnWatchlist:   x.onWatchlist(c, bare, legacy),
				LetterboxdURL: titles.FilmURL(c.slug),
			},
		})
		boosted = append(boosted, base+seedBoost(base, c.uniqueSeeds(), weights))
	}

	for i, s := range normalizeScores(boosted) {
		items[i].final = roundClamp(s)
		items[i].rec.Score = int(items[i].final)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.final != b.final {
			return a.final > b.final
		}
		if a.base != b.base {
			return a.base > b.base
		}
		if a.rec.TMDbRating != b.rec.TMDbRating {
			return a.rec.TMDbRating > b.rec.TMDbRating
		}
		return a.rec.Title < b.rec.Title
	})

	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.Recommendation, len(items))
	for i := range items {
		out[i] = items[i].rec
	}
	return out
}
