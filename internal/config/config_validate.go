// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMissingCredential is returned when a component needs an API credential
// that was not configured.
var ErrMissingCredential = errors.New("missing credential")

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.IsProduction() && c.Security.SecretKey == "" {
		return fmt.Errorf("REELRANK_SECRET_KEY is required when ENVIRONMENT=production")
	}
	if c.Security.SecretKey != "" && len(c.Security.SecretKey) < 32 {
		return fmt.Errorf("REELRANK_SECRET_KEY must be at least 32 characters")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "memory":
		return nil
	case "badger":
		if c.Storage.Path == "" {
			return fmt.Errorf("STORAGE_PATH is required when STORAGE_BACKEND=badger")
		}
		return nil
	default:
		return fmt.Errorf("STORAGE_BACKEND must be badger or memory, got %q", c.Storage.Backend)
	}
}

func (c *Config) validateSources() error {
	if err := validateHTTPURL(c.TMDb.BaseURL, "TMDB_BASE_URL"); err != nil {
		return err
	}
	if c.TMDb.ProxyBaseURL != "" {
		if err := validateHTTPURL(c.TMDb.ProxyBaseURL, "TMDB_PROXY_BASE_URL"); err != nil {
			return err
		}
	}
	if c.TMDb.RateLimit <= 0 || c.TMDb.Burst < 1 {
		return fmt.Errorf("TMDB_RATE_LIMIT and TMDB_BURST must be positive")
	}
	if c.Reddit.Enabled {
		if len(c.Reddit.Subreddits) == 0 {
			return fmt.Errorf("REDDIT_SUBREDDITS must not be empty when REDDIT_ENABLED=true")
		}
		if c.Reddit.RateLimit <= 0 {
			return fmt.Errorf("REDDIT_RATE_LIMIT must be positive")
		}
	}
	if c.TasteIO.Enabled && c.TasteIO.RateLimit <= 0 {
		return fmt.Errorf("TASTEIO_RATE_LIMIT must be positive")
	}
	if c.Letterboxd.PageDelay < 0 {
		return fmt.Errorf("LETTERBOXD_PAGE_DELAY must not be negative")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.MaxSeeds < 1 || r.MaxSeeds > 100 {
		return fmt.Errorf("MAX_SEEDS must be between 1 and 100, got %d", r.MaxSeeds)
	}
	if r.MaxRecommendations < 1 || r.MaxRecommendations > 100 {
		return fmt.Errorf("MAX_RECOMMENDATIONS must be between 1 and 100, got %d", r.MaxRecommendations)
	}
	if r.PopularityFilter < 0 || r.PopularityFilter > 3 {
		return fmt.Errorf("POPULARITY_FILTER must be between 0 and 3, got %d", r.PopularityFilter)
	}
	if r.CanonicalConcurrency < 1 {
		return fmt.Errorf("CANONICAL_CONCURRENCY must be at least 1")
	}
	return nil
}

func (c *Config) validateProxy() error {
	p := c.Proxy
	if !p.Enabled {
		return nil
	}
	if len(p.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGIN is required when PROXY_ENABLED=true")
	}
	if c.UpstreamKey() == "" {
		return fmt.Errorf("TMDB_PROXY_API_KEY or TMDB_API_KEY is required when PROXY_ENABLED=true: %w", ErrMissingCredential)
	}
	if err := validateHTTPURL(p.UpstreamURL, "TMDB_UPSTREAM_URL"); err != nil {
		return err
	}
	if p.SearchTTL <= 0 || p.MovieTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SEARCH and CACHE_TTL_MOVIE must be positive")
	}
	switch p.CacheBackend {
	case "memory":
	case "redis":
		if p.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when PROXY_CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("PROXY_CACHE_BACKEND must be memory or redis, got %q", p.CacheBackend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
