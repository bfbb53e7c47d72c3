// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/letterboxd"
	"github.com/tomtom215/reelrank/internal/metrics"
)

// PageJobSource yields queued page fetches. *letterboxd.PageQueue
// satisfies it.
type PageJobSource interface {
	Next(ctx context.Context) (letterboxd.PageJob, error)
}

// PageFetcher fetches and merges one queued page. *letterboxd.Scraper
// satisfies it.
type PageFetcher interface {
	FetchQueuedPage(ctx context.Context, job letterboxd.PageJob) error
}

// PageFetchServiceConfig paces the worker.
type PageFetchServiceConfig struct {
	// Delay is the pause after each fetch. Default: letterboxd.DefaultPageDelay.
	Delay time.Duration

	// FetchTimeout bounds a single fetch. Default: 30s.
	FetchTimeout time.Duration
}

// PageFetchService drains the profile page queue one job at a time so
// Letterboxd sees a steady, slow request rate.
type PageFetchService struct {
	queue   PageJobSource
	fetcher PageFetcher
	config  PageFetchServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewPageFetchService creates the worker.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPageFetchService(queue PageJobSource, fetcher PageFetcher, cfg PageFetchServiceConfig, logger zerolog.Logger) *PageFetchService {
	if cfg.Delay <= 0 {
		cfg.Delay = letterboxd.DefaultPageDelay
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &PageFetchService{
		queue:   queue,
		fetcher: fetcher,
		config:  cfg,
		logger:  logger.With().Str("service", "page-fetch").Logger(),
		name:    "page-fetch-service",
	}
}

// Serve implements suture.Service. Fetch failures are logged and the job
// is dropped; the next profile scrape queues it again.
func (s *PageFetchService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("delay", s.config.Delay).Msg("page fetch service starting")

	for {
		job, err := s.queue.Next(ctx)
		if err != nil {
			s.logger.Info().Msg("page fetch service shutting down")
			return ctx.Err()
		}

		err = s.fetch(ctx, job)
		metrics.RecordQueuedPageFetch(err)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("username", job.Username).
				Str("page_type", string(job.PageType)).
				Int("page", job.Page).
				Msg("queued page fetch failed")
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("page fetch service shutting down")
			return ctx.Err()
		case <-time.After(s.config.Delay):
		}
	}
}

func (s *PageFetchService) fetch(ctx context.Context, job letterboxd.PageJob) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()
	return s.fetcher.FetchQueuedPage(fetchCtx, job)
}

func (s *PageFetchService) String() string {
	return s.name
}
