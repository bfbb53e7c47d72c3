// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/sources/reddit"
	"github.com/tomtom215/reelrank/internal/sources/tasteio"
	"github.com/tomtom215/reelrank/internal/sources/tmdb"
	"github.com/tomtom215/reelrank/internal/titles"
)

// titleResolveConcurrency bounds concurrent TMDb searches for external
// titles. The TMDb limiter still paces the requests themselves.
const titleResolveConcurrency = 10

// Progress stage labels.
const (
	StageSelectingSeeds = "Selecting seed films"
	StageResolvedIDs    = "Resolved TMDb IDs"
	StageExternal       = "Searching Reddit & Taste.io"
	StageResolving      = "Resolving candidates"
	StageBuilding       = "Building candidates"
	StageRanking        = "Ranking results"
	StageDone           = "Done"
)

// Source names used in SourceError records.
const (
	SourceNameReddit  = "Reddit"
	SourceNameTasteIO = "Taste.io"
)

// ErrConnectivity marks a generation aborted because TMDb could not be
// reached.
var ErrConnectivity = errors.New("tmdb connectivity check failed")

// ConnectivityError wraps the probe failure. It matches ErrConnectivity
// and unwraps to the underlying cause.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "TMDb connectivity check failed: " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// ProgressFunc receives stage updates. It may be nil.
type ProgressFunc func(stage string, percent int)

// MovieSource is the structured catalogue. *tmdb.Client satisfies it.
type MovieSource interface {
	SearchMovie(ctx context.Context, title string, year int) (*tmdb.Movie, error)
	GetMovieWithRecommendations(ctx context.Context, id int) (*tmdb.MovieDetail, error)
	ResolveIDs(ctx context.Context, films []models.ScrapedFilm) map[string]int
}

// CommunitySource proposes titles from discussion threads.
type CommunitySource interface {
	Search(ctx context.Context, title string) ([]reddit.Recommendation, error)
}

// SimilarSource proposes titles from a similarity site.
type SimilarSource interface {
	Similar(ctx context.Context, title string) ([]tasteio.Recommendation, error)
}

// IDLookup reads the permanent slug to TMDb id cache.
type IDLookup interface {
	All(ctx context.Context) (map[string]int, error)
}

// Sources wires an Engine. Reddit, TasteIO and IDs are optional.
type Sources struct {
	Movies  MovieSource
	Reddit  CommunitySource
	TasteIO SimilarSource
	IDs     IDLookup
}

// Stats are cumulative engine counters.
type Stats struct {
	Generations int64 `json:"generations"`
	Failures    int64 `json:"failures"`
}

// Engine generates recommendations. It is safe for concurrent use.
type Engine struct {
	src          Sources
	pipeline     PipelineConfig
	filmPipeline PipelineConfig
	logger       zerolog.Logger
	now          func() time.Time

	generations atomic.Int64
	failures    atomic.Int64
}

// NewEngine creates an Engine. A MovieSource is required.
func NewEngine(src Sources) (*Engine, error) {
	if src.Movies == nil {
		return nil, errors.New("recommend: movie source is required")
	}
	e := &Engine{
		src:    src,
		logger: logging.WithComponent("recommend"),
		now:    time.Now,
	}
	if err := e.SetPipelines(DefaultPipeline(), FilmPagePipeline()); err != nil {
		return nil, err
	}
	return e, nil
}

// SetPipelines replaces the whole-profile and film-page pipelines. Call it
// before the engine is shared.
//
//nolint:gocritic // configs are small and copied once
func (e *Engine) SetPipelines(profile, filmPage PipelineConfig) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("profile pipeline: %w", err)
	}
	if err := filmPage.Validate(); err != nil {
		return fmt.Errorf("film-page pipeline: %w", err)
	}
	e.pipeline, e.filmPipeline = profile, filmPage
	return nil
}

// SetClock replaces the clock used to stamp results.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Stats returns the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{Generations: e.generations.Load(), Failures: e.failures.Load()}
}

// Generate produces recommendations for a whole profile.
func (e *Engine) Generate(ctx context.Context, profile *models.UserProfile, opts Options, progress ProgressFunc) (*models.RecommendationResult, error) {
	opts = opts.withDefaults(models.DefaultMaxRecommendations)
	seeds := SelectSeeds(profile, opts.MaxSeeds)
	return e.run(ctx, profile, seeds, opts, e.pipeline, progress)
}

// GenerateForSeed produces recommendations for a single film, excluding
// what profile has already seen.
func (e *Engine) GenerateForSeed(ctx context.Context, profile *models.UserProfile, seed models.ScrapedFilm, opts Options, progress ProgressFunc) (*models.RecommendationResult, error) {
	opts = opts.withDefaults(DefaultFilmPageMaxRecommendations)
	return e.run(ctx, profile, []models.ScrapedFilm{seed}, opts, e.filmPipeline, progress)
}

type seedWithID struct {
	seed models.ScrapedFilm
	id   int
}

type redditOutcome struct {
	seed models.ScrapedFilm
	recs []reddit.Recommendation
	err  error
}

type tasteOutcome struct {
	seed models.ScrapedFilm
	recs []tasteio.Recommendation
	err  error
}

type titleQuery struct {
	key   string
	title string
	year  int
}

//nolint:gocritic // pipeline config is small and read-only
func (e *Engine) run(ctx context.Context, profile *models.UserProfile, seeds []models.ScrapedFilm, opts Options, pipeline PipelineConfig, progress ProgressFunc) (*models.RecommendationResult, error) {
	start := time.Now()
	e.generations.Add(1)
	if profile == nil {
		profile = &models.UserProfile{}
	}
	report := func(stage string, pct float64) {
		if progress != nil {
			progress(stage, int(math.Round(pct)))
		}
	}

	weights := SeedWeights(seeds)
	report(StageSelectingSeeds, 10)

	if len(seeds) > 0 {
		if _, err := e.src.Movies.SearchMovie(ctx, seeds[0].Title, seeds[0].Year); err != nil {
			e.failures.Add(1)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &ConnectivityError{Err: err}
		}
	}

	ids := e.src.Movies.ResolveIDs(ctx, seeds)
	report(StageResolvedIDs, 20)

	x := e.buildExclusion(ctx, profile, ids)

	set := newCandidateSet()
	if err := e.expandTMDb(ctx, seeds, ids, pipeline, set, report); err != nil {
		e.failures.Add(1)
		return nil, err
	}

	report(StageExternal, 55)
	count := min(len(seeds), max(pipeline.ExternalSeedMin, int(math.Ceil(float64(len(seeds))*pipeline.ExternalSeedRatio))))
	redditOut, tasteOut := e.queryExternal(ctx, seeds[:count])
	sourceErrors := collectSourceErrors(redditOut, tasteOut)
	if len(sourceErrors) > 0 {
		e.logger.Warn().Interface("source_errors", sourceErrors).Msg("External sources failed")
	}

	report(StageResolving, 70)
	queries := externalTitles(redditOut, tasteOut, pipeline, max(opts.MaxRecommendations*pipeline.ResolveMultiplier, pipeline.ResolveMin))
	resolved := e.resolveTitles(ctx, queries)
	if err := ctx.Err(); err != nil {
		e.failures.Add(1)
		return nil, err
	}

	report(StageBuilding, 85)
	for _, o := range redditOut {
		if o.err != nil {
			continue
		}
		for _, rec := range o.recs[:min(len(o.recs), pipeline.RedditPerSeed)] {
			addExternal(set, resolved[strings.ToLower(rec.Title)], o.seed, models.SourceReddit, pipeline.ExternalCanIntroduce)
		}
	}
	for _, o := range tasteOut {
		if o.err != nil {
			continue
		}
		for _, rec := range o.recs[:min(len(o.recs), pipeline.TasteIOPerSeed)] {
			addExternal(set, resolved[strings.ToLower(rec.Title)], o.seed, models.SourceTasteIO, pipeline.ExternalCanIntroduce)
		}
	}

	recs := rank(set, x, weights, opts.PopularityFilter, opts.MaxRecommendations)
	report(StageRanking, 95)

	result := &models.RecommendationResult{
		Recommendations: recs,
		GeneratedAt:     e.now(),
		SeedCount:       len(seeds),
		Username:        profile.Username,
		SourceErrors:    sourceErrors,
	}
	report(StageDone, 100)

	e.logger.Info().
		Str("username", profile.Username).
		Int("seeds", len(seeds)).
		Int("candidates", set.len()).
		Int("recommendations", len(recs)).
		Int("source_errors", len(sourceErrors)).
		Dur("duration", time.Since(start)).
		Msg("Generated recommendations")
	return result, nil
}

// buildExclusion collects the watched and watchlist state. Watched films
// get TMDb ids from the seed resolution and from the id cache; the cache
// read never triggers a search.
func (e *Engine) buildExclusion(ctx context.Context, profile *models.UserProfile, seedIDs map[string]int) *exclusion {
	x := &exclusion{
		ids:       make(map[int]bool),
		slugs:     make(map[string]bool, len(profile.WatchedFilms)),
		titles:    make(map[string]bool, len(profile.WatchedFilms)),
		watchlist: make(map[string]bool, len(profile.Watchlist)),
	}

	var cached map[string]int
	if e.src.IDs != nil {
		all, err := e.src.IDs.All(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Failed to read TMDb id cache")
		}
		cached = all
	}

	for _, f := range profile.WatchedFilms {
		x.slugs[f.Slug] = true
		if norm := titles.NormalizeForComparison(f.Title); norm != "" {
			x.titles[norm] = true
		}
		if id, ok := seedIDs[f.Slug]; ok {
			x.ids[id] = true
		} else if id, ok := cached[f.Slug]; ok {
			x.ids[id] = true
		}
	}
	for _, f := range profile.Watchlist {
		x.watchlist[f.Slug] = true
	}
	return x
}

//nolint:gocritic // pipeline config is small and read-only
func (e *Engine) expandTMDb(ctx context.Context, seeds []models.ScrapedFilm, ids map[string]int, pipeline PipelineConfig, set *candidateSet, report func(string, float64)) error {
	var withIDs []seedWithID
	for _, s := range seeds {
		if id, ok := ids[s.Slug]; ok {
			withIDs = append(withIDs, seedWithID{seed: s, id: id})
		}
	}

	for i := 0; i < len(withIDs); i += pipeline.TMDbBatchSize {
		batch := withIDs[i:min(i+pipeline.TMDbBatchSize, len(withIDs))]
		details := make([]*tmdb.MovieDetail, len(batch))

		var g errgroup.Group
		for j, s := range batch {
			g.Go(func() error {
				d, err := e.src.Movies.GetMovieWithRecommendations(ctx, s.id)
				if err != nil {
					e.logger.Debug().Err(err).Int("tmdb_id", s.id).Msg("Seed expansion failed")
					return nil
				}
				details[j] = d
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}

		for j, d := range details {
			if d == nil {
				continue
			}
			recs := d.RecommendationResults()
			for k := range recs[:min(len(recs), pipeline.RecommendationsPerSeed)] {
				set.add(&recs[k], batch[j].seed, models.SourceTMDbRecommendation)
			}
			similar := d.SimilarResults()
			for k := range similar[:min(len(similar), pipeline.SimilarPerSeed)] {
				set.add(&similar[k], batch[j].seed, models.SourceTMDbSimilar)
			}
		}

		processed := min(i+pipeline.TMDbBatchSize, len(withIDs))
		report(fmt.Sprintf("Processing seeds (%d/%d)", processed, len(withIDs)),
			20+float64(processed)/float64(len(withIDs))*35)
	}
	return nil
}

// queryExternal asks both external sources about every seed at once.
// A disabled source yields empty successful outcomes.
func (e *Engine) queryExternal(ctx context.Context, seeds []models.ScrapedFilm) ([]redditOutcome, []tasteOutcome) {
	redditOut := make([]redditOutcome, len(seeds))
	tasteOut := make([]tasteOutcome, len(seeds))

	var g errgroup.Group
	for i, seed := range seeds {
		redditOut[i].seed = seed
		tasteOut[i].seed = seed
		if e.src.Reddit != nil {
			g.Go(func() error {
				redditOut[i].recs, redditOut[i].err = e.src.Reddit.Search(ctx, seed.Title)
				return nil
			})
		}
		if e.src.TasteIO != nil {
			g.Go(func() error {
				tasteOut[i].recs, tasteOut[i].err = e.src.TasteIO.Similar(ctx, seed.Title)
				return nil
			})
		}
	}
	_ = g.Wait()
	return redditOut, tasteOut
}

func collectSourceErrors(redditOut []redditOutcome, tasteOut []tasteOutcome) []models.SourceError {
	var out []models.SourceError

	failed := 0
	for _, o := range redditOut {
		if o.err != nil {
			failed++
		}
	}
	if se := sourceFailure(SourceNameReddit, failed, len(redditOut)); se != nil {
		metrics.RecordSourceError("reddit", failed == len(redditOut))
		out = append(out, *se)
	}

	failed = 0
	for _, o := range tasteOut {
		if o.err != nil {
			failed++
		}
	}
	if se := sourceFailure(SourceNameTasteIO, failed, len(tasteOut)); se != nil {
		metrics.RecordSourceError("tasteio", failed == len(tasteOut))
		out = append(out, *se)
	}
	return out
}

func sourceFailure(name string, failed, total int) *models.SourceError {
	switch {
	case failed == 0 || total == 0:
		return nil
	case failed == total:
		return &models.SourceError{
			Source:        name,
			Error:         fmt.Sprintf("All %s requests failed — service may be unreachable", name),
			SeedsAffected: failed,
		}
	default:
		return &models.SourceError{
			Source:        name,
			Error:         fmt.Sprintf("%d/%d %s searches failed", failed, total, name),
			SeedsAffected: failed,
		}
	}
}

// externalTitles picks the titles to look up on TMDb: Reddit first, then
// Taste.io, keyed by lowercase title and capped at limit.
//
//nolint:gocritic // pipeline config is small and read-only
func externalTitles(redditOut []redditOutcome, tasteOut []tasteOutcome, pipeline PipelineConfig, limit int) []titleQuery {
	var out []titleQuery
	seen := make(map[string]bool)
	add := func(title string, year int) bool {
		key := strings.ToLower(title)
		if seen[key] {
			return true
		}
		if len(out) >= limit {
			return false
		}
		seen[key] = true
		out = append(out, titleQuery{key: key, title: title, year: year})
		return true
	}

	for _, o := range redditOut {
		if o.err != nil {
			continue
		}
		for _, rec := range o.recs[:min(len(o.recs), pipeline.RedditPerSeed)] {
			if !add(rec.Title, 0) {
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}

	if len(out) < limit {
		for _, o := range tasteOut {
			if o.err != nil {
				continue
			}
			for _, rec := range o.recs[:min(len(o.recs), pipeline.TasteIOPerSeed)] {
				if !add(rec.Title, rec.Year) {
					break
				}
			}
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// resolveTitles searches each title on TMDb and keeps confident matches,
// keyed by lowercase title.
func (e *Engine) resolveTitles(ctx context.Context, queries []titleQuery) map[string]*tmdb.Movie {
	movies := make([]*tmdb.Movie, len(queries))

	var g errgroup.Group
	g.SetLimit(titleResolveConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			m, err := e.src.Movies.SearchMovie(ctx, q.title, q.year)
			if err != nil || m == nil {
				return nil
			}
			if IsConfidentMatch(q.title, q.year, m) {
				movies[i] = m
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*tmdb.Movie, len(queries))
	for i, q := range queries {
		if movies[i] != nil {
			out[q.key] = movies[i]
		}
	}
	return out
}

func addExternal(set *candidateSet, movie *tmdb.Movie, seed models.ScrapedFilm, source models.HitSource, canIntroduce bool) {
	if movie == nil {
		return
	}
	if !canIntroduce && !set.has(movie.ID) {
		return
	}
	set.add(movie, seed, source)
}
