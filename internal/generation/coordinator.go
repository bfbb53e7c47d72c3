// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/titles"
)

// GenerationTimeout bounds one generation, independent of its callers.
const GenerationTimeout = 5 * time.Minute

// FingerprintVersion is bumped whenever scoring changes so cached results
// stop matching.
const FingerprintVersion = "score-v2"

// Stage labels emitted by the coordinator itself.
const (
	StageScraping = "Fetching Letterboxd profile"
	StageReused   = "Using cached recommendations"
	StageFailed   = "Failed"
)

// ErrNoSeeds is returned when a profile has no rated or liked films.
var ErrNoSeeds = errors.New("no seed films")

// NoSeedsError names the user whose profile has no seeds. It matches
// ErrNoSeeds.
type NoSeedsError struct {
	Username string
}

func (e *NoSeedsError) Error() string {
	return fmt.Sprintf("No rated or liked films found for %q. Visit their Letterboxd profile first.", e.Username)
}

func (e *NoSeedsError) Is(target error) bool { return target == ErrNoSeeds }

// ProfileReader loads stored profiles. *storage.ProfileStore satisfies it.
type ProfileReader interface {
	Get(ctx context.Context, username string) (*models.UserProfile, error)
}

// ProfileScraper fetches a full profile. *letterboxd.Scraper satisfies it.
type ProfileScraper interface {
	ScrapeProfile(ctx context.Context, username string) (*letterboxd.ScrapeReport, error)
}

// ResultCache stores generated results. *storage.ResultStore satisfies it.
type ResultCache interface {
	Get(ctx context.Context, username string) (*models.RecommendationResult, error)
	Save(ctx context.Context, r *models.RecommendationResult) error
}

// FlagStore persists generation flags. *storage.FlagStore satisfies it.
type FlagStore interface {
	SetGenerating(ctx context.Context, username string) error
	ClearGenerating(ctx context.Context, username string) error
	Generating(ctx context.Context, username string) (*models.GenerationFlag, error)
}

// Generator runs the recommendation pipeline. *recommend.Engine satisfies it.
type Generator interface {
	Generate(ctx context.Context, profile *models.UserProfile, opts recommend.Options, progress recommend.ProgressFunc) (*models.RecommendationResult, error)
	GenerateForSeed(ctx context.Context, profile *models.UserProfile, seed models.ScrapedFilm, opts recommend.Options, progress recommend.ProgressFunc) (*models.RecommendationResult, error)
}

// Canonicalizer rewrites result URLs to canonical slugs.
// *canonical.Service satisfies it.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, result *models.RecommendationResult) bool
}

// SettingsReader reads the stored settings.
type SettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

// WatchlistReader lists slugs added to the watchlist since the last scrape.
type WatchlistReader interface {
	All(ctx context.Context) (map[string]bool, error)
}

// ProgressPublisher receives generation progress. *websocket.Hub
// satisfies it.
type ProgressPublisher interface {
	PublishProgress(p models.GenerationProgress)
}

// Deps wires a Coordinator. Progress and Watchlist are optional.
type Deps struct {
	Profiles  ProfileReader
	Scraper   ProfileScraper
	Results   ResultCache
	Flags     FlagStore
	Engine    Generator
	Canonical Canonicalizer
	Settings  SettingsReader
	Watchlist WatchlistReader
	Progress  ProgressPublisher
}

// Coordinator runs at most one generation per user at a time.
type Coordinator struct {
	deps    Deps
	group   singleflight.Group
	timeout time.Duration
	logger  zerolog.Logger
}

// New creates a Coordinator.
func New(deps Deps) (*Coordinator, error) {
	switch {
	case deps.Profiles == nil, deps.Scraper == nil, deps.Results == nil, deps.Flags == nil:
		return nil, errors.New("generation: profile, scraper, result and flag stores are required")
	case deps.Engine == nil, deps.Canonical == nil, deps.Settings == nil:
		return nil, errors.New("generation: engine, canonicalizer and settings are required")
	}
	return &Coordinator{
		deps:    deps,
		timeout: GenerationTimeout,
		logger:  logging.WithComponent("generation"),
	}, nil
}

// SetTimeout bounds each generation. Non-positive values keep the current
// timeout.
func (c *Coordinator) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Fingerprint identifies the inputs a result was generated from.
//
//nolint:gocritic // settings are passed by value throughout
func Fingerprint(s models.Settings, scrapedAt time.Time) string {
	return fmt.Sprintf("%d:%d:%d:%d:%s", s.MaxSeeds, s.MaxRecommendations, s.PopularityFilter, scrapedAt.UnixMilli(), FingerprintVersion)
}

// EnsureStarted joins the running generation for username or starts one,
// and waits for its result. Cancelling ctx stops the wait but not the
// generation.
//
//nolint:gocritic // settings are passed by value throughout
func (c *Coordinator) EnsureStarted(ctx context.Context, username string, settings models.Settings) (*models.RecommendationResult, error) {
	key := models.NormalizeUsername(username)
	if key == "" {
		return nil, errors.New("generation: username is required")
	}

	leader := false
	ch := c.group.DoChan(key, func() (any, error) {
		leader = true
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.execute(genCtx, key, settings)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if !leader {
			metrics.RecordGeneration("joined", 0)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RecommendationResult), nil
	}
}

// execute is the body of one generation.
//
//nolint:gocritic // settings are passed by value throughout
func (c *Coordinator) execute(ctx context.Context, username string, settings models.Settings) (result *models.RecommendationResult, err error) {
	start := time.Now()
	progress := c.progressFunc(username)

	if ferr := c.deps.Flags.SetGenerating(ctx, username); ferr != nil {
		c.logger.Warn().Err(ferr).Str("username", username).Msg("Failed to set generation flag")
	}
	defer func() {
		if ferr := c.deps.Flags.ClearGenerating(context.WithoutCancel(ctx), username); ferr != nil {
			c.logger.Warn().Err(ferr).Str("username", username).Msg("Failed to clear generation flag")
		}
		if err != nil {
			metrics.RecordGeneration("failed", time.Since(start))
			c.publish(models.GenerationProgress{Username: username, Stage: StageFailed, Percent: 100, Error: err.Error()})
			c.logger.Warn().Err(err).Str("username", username).Msg("Generation failed")
		}
	}()

	profile, err := c.loadProfile(ctx, username, progress)
	if err != nil {
		return nil, err
	}
	if !profile.HasSeeds() {
		return nil, &NoSeedsError{Username: username}
	}

	fp := Fingerprint(settings, profile.ScrapedAt)
	cached, cerr := c.deps.Results.Get(ctx, username)
	if cerr != nil {
		c.logger.Warn().Err(cerr).Str("username", username).Msg("Failed to read cached result")
	}
	if cached != nil && cached.SettingsFingerprint == fp {
		if c.deps.Canonical.Canonicalize(ctx, cached) {
			if serr := c.deps.Results.Save(ctx, cached); serr != nil {
				c.logger.Warn().Err(serr).Str("username", username).Msg("Failed to save canonicalized result")
			}
		}
		c.overlayWatchlist(ctx, cached)
		metrics.RecordGeneration("reused", 0)
		progress(StageReused, 100)
		c.logger.Info().Str("username", username).Str("fingerprint", fp).Msg("Reused cached recommendations")
		return cached, nil
	}

	result, err = c.deps.Engine.Generate(ctx, profile, recommend.OptionsFromSettings(settings), progress)
	if err != nil {
		return nil, err
	}
	c.deps.Canonical.Canonicalize(ctx, result)
	result.Username = username
	result.SettingsFingerprint = fp
	if serr := c.deps.Results.Save(ctx, result); serr != nil {
		c.logger.Warn().Err(serr).Str("username", username).Msg("Failed to cache result")
	}
	c.overlayWatchlist(ctx, result)

	metrics.RecordGeneration("generated", time.Since(start))
	c.logger.Info().
		Str("username", username).
		Int("recommendations", len(result.Recommendations)).
		Dur("duration", time.Since(start)).
		Msg("Generation complete")
	return result, nil
}

// loadProfile returns the stored profile, scraping first when it is
// missing or has no watched films.
func (c *Coordinator) loadProfile(ctx context.Context, username string, progress recommend.ProgressFunc) (*models.UserProfile, error) {
	profile, err := c.deps.Profiles.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil && len(profile.WatchedFilms) > 0 {
		return profile, nil
	}

	progress(StageScraping, 5)
	if _, err := c.deps.Scraper.ScrapeProfile(ctx, username); err != nil {
		return nil, fmt.Errorf("scrape profile: %w", err)
	}
	profile, err = c.deps.Profiles.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		profile = &models.UserProfile{Username: username}
	}
	return profile, nil
}

// GetCached returns the cached result for username with canonical URLs,
// or nil.
func (c *Coordinator) GetCached(ctx context.Context, username string) (*models.RecommendationResult, error) {
	result, err := c.deps.Results.Get(ctx, username)
	if err != nil || result == nil {
		return nil, err
	}
	if c.deps.Canonical.Canonicalize(ctx, result) {
		if err := c.deps.Results.Save(ctx, result); err != nil {
			c.logger.Warn().Err(err).Str("username", username).Msg("Failed to save canonicalized result")
		}
	}
	c.overlayWatchlist(ctx, result)
	return result, nil
}

// InProgress returns the persisted flag for username, or nil.
func (c *Coordinator) InProgress(ctx context.Context, username string) (*models.GenerationFlag, error) {
	return c.deps.Flags.Generating(ctx, username)
}

// FilmRecommendations generates recommendations for a single film. Films
// the configured user has already seen are excluded.
func (c *Coordinator) FilmRecommendations(ctx context.Context, slug, title string, year int) (*models.RecommendationResult, error) {
	if slug == "" {
		return nil, errors.New("generation: film slug is required")
	}
	settings, err := c.deps.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	five := 5.0
	seed := models.ScrapedFilm{
		Slug:          slug,
		Title:         title,
		Year:          year,
		Rating:        &five,
		Liked:         true,
		LetterboxdURL: titles.FilmURL(slug),
	}

	profile := &models.UserProfile{}
	if settings.LetterboxdUsername != "" {
		stored, perr := c.deps.Profiles.Get(ctx, settings.LetterboxdUsername)
		if perr != nil {
			c.logger.Warn().Err(perr).Msg("Failed to load profile for film page")
		}
		if stored != nil {
			profile = stored
		}
	}
	if !containsSlug(profile.WatchedFilms, slug) {
		profile.WatchedFilms = append([]models.ScrapedFilm{seed}, profile.WatchedFilms...)
	}

	opts := recommend.Options{
		MaxRecommendations: recommend.DefaultFilmPageMaxRecommendations,
		PopularityFilter:   settings.PopularityFilter,
	}
	result, err := c.deps.Engine.GenerateForSeed(ctx, profile, seed, opts, nil)
	if err != nil {
		return nil, err
	}
	c.deps.Canonical.Canonicalize(ctx, result)
	c.overlayWatchlist(ctx, result)
	return result, nil
}

// overlayWatchlist marks films added to the watchlist since the last
// scrape.
func (c *Coordinator) overlayWatchlist(ctx context.Context, result *models.RecommendationResult) {
	if c.deps.Watchlist == nil || result == nil {
		return
	}
	adds, err := c.deps.Watchlist.All(ctx)
	if err != nil || len(adds) == 0 {
		return
	}
	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		if adds[titles.SlugFromFilmURL(rec.LetterboxdURL)] {
			rec.OnWatchlist = true
		}
	}
}

func (c *Coordinator) progressFunc(username string) recommend.ProgressFunc {
	return func(stage string, percent int) {
		c.publish(models.GenerationProgress{Username: username, Stage: stage, Percent: percent})
	}
}

func (c *Coordinator) publish(p models.GenerationProgress) {
	if c.deps.Progress != nil {
		c.deps.Progress.PublishProgress(p)
	}
}

func containsSlug(films []models.ScrapedFilm, slug string) bool {
	for _, f := range films {
		if f.Slug == slug {
			return true
		}
	}
	return false
}
