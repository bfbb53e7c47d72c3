// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recommend.MaxSeeds != 15 {
		t.Errorf("MaxSeeds = %d, want 15", cfg.Recommend.MaxSeeds)
	}
	if cfg.Recommend.MaxRecommendations != 20 {
		t.Errorf("MaxRecommendations = %d, want 20", cfg.Recommend.MaxRecommendations)
	}
	if cfg.Recommend.PopularityFilter != 1 {
		t.Errorf("PopularityFilter = %d, want 1", cfg.Recommend.PopularityFilter)
	}
	if cfg.TMDb.RateLimit != 10 || cfg.TMDb.Burst != 10 {
		t.Errorf("TMDb limiter = %v/%d, want 10/10", cfg.TMDb.RateLimit, cfg.TMDb.Burst)
	}
	if cfg.Reddit.Timeout != 3500*time.Millisecond {
		t.Errorf("Reddit timeout = %v", cfg.Reddit.Timeout)
	}
	if len(cfg.Reddit.Subreddits) != 5 {
		t.Errorf("Subreddits = %v", cfg.Reddit.Subreddits)
	}
	if cfg.Proxy.SearchTTL != 600*time.Second || cfg.Proxy.MovieTTL != 21600*time.Second {
		t.Errorf("proxy TTLs = %v / %v", cfg.Proxy.SearchTTL, cfg.Proxy.MovieTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("MAX_SEEDS", "8")
	t.Setenv("POPULARITY_FILTER", "3")
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("TMDB_API_KEY", "secret-token")
	t.Setenv("ALLOWED_ORIGIN", "chrome-extension://abc/, https://example.com ")
	t.Setenv("CACHE_TTL_SEARCH", "120")
	t.Setenv("CACHE_TTL_MOVIE", "2h")
	t.Setenv("REDDIT_SUBREDDITS", "flicks,TrueFilm")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recommend.MaxSeeds != 8 {
		t.Errorf("MaxSeeds = %d, want 8", cfg.Recommend.MaxSeeds)
	}
	if cfg.Recommend.PopularityFilter != 3 {
		t.Errorf("PopularityFilter = %d, want 3", cfg.Recommend.PopularityFilter)
	}
	if len(cfg.Proxy.AllowedOrigins) != 2 || cfg.Proxy.AllowedOrigins[1] != "https://example.com" {
		t.Errorf("AllowedOrigins = %q", cfg.Proxy.AllowedOrigins)
	}
	if cfg.Proxy.SearchTTL != 2*time.Minute {
		t.Errorf("SearchTTL = %v, want 2m", cfg.Proxy.SearchTTL)
	}
	if cfg.Proxy.MovieTTL != 2*time.Hour {
		t.Errorf("MovieTTL = %v, want 2h", cfg.Proxy.MovieTTL)
	}
	if cfg.UpstreamKey() != "secret-token" {
		t.Errorf("UpstreamKey() = %q", cfg.UpstreamKey())
	}
	if len(cfg.Reddit.Subreddits) != 2 {
		t.Errorf("Subreddits = %v", cfg.Reddit.Subreddits)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("recommend:\n  max_recommendations: 12\nstorage:\n  backend: memory\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Recommend.MaxRecommendations != 12 {
		t.Errorf("MaxRecommendations = %d, want 12", cfg.Recommend.MaxRecommendations)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"TMDB_API_KEY":          "tmdb.api_key",
		"ALLOWED_ORIGIN":        "proxy.allowed_origins",
		"LETTERBOXD_PAGE_DELAY": "letterboxd.page_delay",
		"PATH":                  "",
		"HOME":                  "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"popularity out of range", func(c *Config) { c.Recommend.PopularityFilter = 4 }, true},
		{"proxy without origins", func(c *Config) {
			c.Proxy.Enabled = true
			c.TMDb.APIKey = "k"
		}, true},
		{"proxy without key", func(c *Config) {
			c.Proxy.Enabled = true
			c.Proxy.AllowedOrigins = []string{"https://a"}
		}, true},
		{"proxy redis ok", func(c *Config) {
			c.Proxy.Enabled = true
			c.Proxy.AllowedOrigins = []string{"https://a"}
			c.Proxy.APIKey = "k"
			c.Proxy.CacheBackend = "redis"
		}, false},
		{"production without secret", func(c *Config) { c.Server.Environment = "production" }, true},
		{"short secret", func(c *Config) { c.Security.SecretKey = "short" }, true},
		{"bad tmdb url", func(c *Config) { c.TMDb.BaseURL = "ftp://x" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsesProxy(t *testing.T) {
	t.Parallel()

	if (TMDbConfig{ProxyBaseURL: "https://p"}).UsesProxy() != true {
		t.Error("expected proxy mode without a key")
	}
	if (TMDbConfig{APIKey: "k", ProxyBaseURL: "https://p"}).UsesProxy() {
		t.Error("a configured key takes precedence over the proxy")
	}
}
