// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
)

// Health reasons reported when a full profile scrape finds nothing.
const (
	ReasonFetchFailing   = "Letterboxd profile fetch is failing; using cached data where available."
	ReasonParsingChanged = "Letterboxd page parsing may have changed; using cached data where available."
)

// ErrInvalidUsername is returned for empty or reserved profile names.
var ErrInvalidUsername = errors.New("letterboxd: invalid username")

// sections lists the profile sections in scrape order.
var sections = []models.PageType{
	models.PageFilms,
	models.PageRatings,
	models.PageLikes,
	models.PageWatchlist,
}

// SectionPath maps a page type to its profile URL section.
func SectionPath(t models.PageType) string {
	switch t {
	case models.PageLikes:
		return "likes/films"
	case models.PageRatings:
		return "films/ratings"
	default:
		return string(t)
	}
}

// ProfileWriter merges scraped films into a stored profile.
type ProfileWriter interface {
	UpdateFilms(ctx context.Context, username string, pageType models.PageType, films []models.ScrapedFilm) (*models.UserProfile, error)
}

// HealthWriter records service health for a scope.
type HealthWriter interface {
	SetHealth(ctx context.Context, scope string, status models.HealthStatus, reason string) error
}

// WatchlistClearer drops locally recorded watchlist additions.
type WatchlistClearer interface {
	Clear(ctx context.Context) error
}

// SettingsWriter persists partial settings updates.
type SettingsWriter interface {
	Update(ctx context.Context, u models.SettingsUpdate) (models.Settings, error)
}

// ScrapeReport summarizes a full profile scrape.
type ScrapeReport struct {
	Username         string `json:"username"`
	SectionsWithData int    `json:"sectionsWithData"`
	FailedRequests   int    `json:"failedRequests"`
	QueuedPages      int    `json:"queuedPages"`
}

// ScraperDeps are the stores a Scraper writes to.
type ScraperDeps struct {
	Profiles  ProfileWriter
	Health    HealthWriter
	Watchlist WatchlistClearer
	Settings  SettingsWriter
}

// Scraper reads Letterboxd profiles into the profile store. Page one of
// each section is fetched inline; later pages go through the queue.
type Scraper struct {
	client *Client
	deps   ScraperDeps
	queue  *PageQueue
	logger zerolog.Logger
}

// NewScraper creates a Scraper feeding queue.
func NewScraper(client *Client, deps ScraperDeps, queue *PageQueue) *Scraper {
	if queue == nil {
		queue = NewPageQueue(DefaultQueueSize)
	}
	return &Scraper{
		client: client,
		deps:   deps,
		queue:  queue,
		logger: logging.WithComponent("letterboxd"),
	}
}

// Queue returns the page queue drained by the page fetch service.
func (s *Scraper) Queue() *PageQueue {
	return s.queue
}

// ScrapeProfile refreshes every section of username's profile and
// updates that user's service health.
func (s *Scraper) ScrapeProfile(ctx context.Context, username string) (*ScrapeReport, error) {
	username = models.NormalizeUsername(username)
	if username == "" || IsReservedUsername(username) {
		return nil, ErrInvalidUsername
	}

	if err := s.deps.Watchlist.Clear(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear recorded watchlist additions")
	}

	report := &ScrapeReport{Username: username}
	for _, section := range sections {
		resp, err := s.client.Get(ctx, s.client.ProfilePageURL(username, SectionPath(section), 1))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.FailedRequests++
			s.logger.Warn().Err(err).Str("username", username).Str("section", string(section)).Msg("Profile section fetch failed")
			continue
		}
		if !resp.OK() {
			report.FailedRequests++
			s.logger.Warn().Int("status", resp.StatusCode).Str("username", username).Str("section", string(section)).Msg("Profile section returned error status")
			continue
		}

		html := string(resp.Body)
		films := ParseFilms(html)
		if len(films) > 0 {
			report.SectionsWithData++
			if _, err := s.deps.Profiles.UpdateFilms(ctx, username, section, films); err != nil {
				return nil, fmt.Errorf("save %s: %w", section, err)
			}
		}
		report.QueuedPages += s.enqueueRemaining(username, section, 1, ParsePagination(html))
	}

	status, reason := models.HealthNormal, ""
	if report.SectionsWithData == 0 {
		status, reason = models.HealthDegraded, ReasonParsingChanged
		if report.FailedRequests > 0 {
			reason = ReasonFetchFailing
		}
	}
	if err := s.deps.Health.SetHealth(ctx, username, status, reason); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record service health")
	}

	s.logger.Info().
		Str("username", username).
		Int("sections_with_data", report.SectionsWithData).
		Int("failed_requests", report.FailedRequests).
		Int("queued_pages", report.QueuedPages).
		Msg("Profile scrape complete")
	return report, nil
}

// IngestPage merges one page scraped by a client and queues the pages
// after it.
func (s *Scraper) IngestPage(ctx context.Context, page models.PageIngest) (*models.UserProfile, error) {
	username := models.NormalizeUsername(page.Username)
	if username == "" || IsReservedUsername(username) {
		return nil, ErrInvalidUsername
	}
	if !page.PageType.Valid() {
		return nil, fmt.Errorf("letterboxd: unknown page type %q", page.PageType)
	}

	if s.deps.Settings != nil {
		if _, err := s.deps.Settings.Update(ctx, models.SettingsUpdate{LetterboxdUsername: &username}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to remember Letterboxd username")
		}
	}

	profile, err := s.deps.Profiles.UpdateFilms(ctx, username, page.PageType, page.Films)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", page.PageType, err)
	}
	s.enqueueRemaining(username, page.PageType, page.Page, page.TotalPages)
	return profile, nil
}

func (s *Scraper) enqueueRemaining(username string, section models.PageType, current, total int) int {
	queued := 0
	for p := current + 1; p <= total; p++ {
		if s.queue.Enqueue(PageJob{Username: username, PageType: section, Page: p}) {
			queued++
		}
	}
	return queued
}

// FetchQueuedPage fetches and merges one queued page. Error statuses and
// empty pages are skipped.
func (s *Scraper) FetchQueuedPage(ctx context.Context, job PageJob) error {
	resp, err := s.client.Get(ctx, s.client.ProfilePageURL(job.Username, SectionPath(job.PageType), job.Page))
	if err != nil {
		return err
	}
	if !resp.OK() {
		s.logger.Debug().Int("status", resp.StatusCode).Str("username", job.Username).Int("page", job.Page).Msg("Skipping page")
		return nil
	}
	films := ParseFilms(string(resp.Body))
	if len(films) == 0 {
		return nil
	}
	if _, err := s.deps.Profiles.UpdateFilms(ctx, job.Username, job.PageType, films); err != nil {
		return fmt.Errorf("save %s page %d: %w", job.PageType, job.Page, err)
	}
	return nil
}
