// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package config loads Reelrank configuration from defaults, an optional
// YAML file and environment variables (in that order of precedence, lowest
// first) using koanf.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	TMDb       TMDbConfig       `koanf:"tmdb"`
	Reddit     RedditConfig     `koanf:"reddit"`
	TasteIO    TasteIOConfig    `koanf:"tasteio"`
	Letterboxd LetterboxdConfig `koanf:"letterboxd"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Proxy      ProxyConfig      `koanf:"proxy"`
	Security   SecurityConfig   `koanf:"security"`
}

type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig selects the key-value substrate under every cache.
type StorageConfig struct {
	Backend string `koanf:"backend"` // badger or memory
	Path    string `koanf:"path"`
}

// TMDbConfig configures the primary structured source. When APIKey is empty
// and ProxyBaseURL is set, requests go through a shared Reelrank proxy.
type TMDbConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ProxyBaseURL string        `koanf:"proxy_base_url"`
	ProxyOrigin  string        `koanf:"proxy_origin"`
	RateLimit    float64       `koanf:"rate_limit"` // requests per second
	Burst        int           `koanf:"burst"`
	Timeout      time.Duration `koanf:"timeout"`
}

type RedditConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url"`
	Subreddits []string      `koanf:"subreddits"`
	UserAgent  string        `koanf:"user_agent"`
	RateLimit  float64       `koanf:"rate_limit"`
	Burst      int           `koanf:"burst"`
	Timeout    time.Duration `koanf:"timeout"`
}

type TasteIOConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BaseURL   string        `koanf:"base_url"`
	UserAgent string        `koanf:"user_agent"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
	Timeout   time.Duration `koanf:"timeout"`
}

// LetterboxdConfig configures profile scraping and watchlist calls.
type LetterboxdConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Username  string        `koanf:"username"`   // default profile for film-page mode
	PageDelay time.Duration `koanf:"page_delay"` // spacing between queued page fetches
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
}

type RecommendConfig struct {
	MaxSeeds             int           `koanf:"max_seeds"`
	MaxRecommendations   int           `koanf:"max_recommendations"`
	PopularityFilter     int           `koanf:"popularity_filter"`
	CanonicalConcurrency int           `koanf:"canonical_concurrency"`
	GenerationTimeout    time.Duration `koanf:"generation_timeout"`
}

// ProxyConfig configures the shared TMDb reverse proxy.
type ProxyConfig struct {
	Enabled        bool          `koanf:"enabled"`
	APIKey         string        `koanf:"api_key"` // falls back to tmdb.api_key
	UpstreamURL    string        `koanf:"upstream_url"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	SearchTTL      time.Duration `koanf:"search_ttl"`
	MovieTTL       time.Duration `koanf:"movie_ttl"`
	CacheBackend   string        `koanf:"cache_backend"` // memory or redis
	CacheCapacity  int           `koanf:"cache_capacity"`
	RedisAddr      string        `koanf:"redis_addr"`
	RedisPassword  string        `koanf:"redis_password"`
	RedisDB        int           `koanf:"redis_db"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	SecretKey         string        `koanf:"secret_key"` // encrypts stored credentials when set
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether production-only checks apply.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// UsesProxy reports whether the TMDb client should route through a proxy.
func (t TMDbConfig) UsesProxy() bool {
	return t.APIKey == "" && t.ProxyBaseURL != ""
}

// UpstreamKey returns the credential the proxy sends upstream.
func (c *Config) UpstreamKey() string {
	if c.Proxy.APIKey != "" {
		return c.Proxy.APIKey
	}
	return c.TMDb.APIKey
}
