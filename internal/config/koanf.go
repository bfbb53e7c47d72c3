// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelrank/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultSubreddits are the communities searched for "if you liked X" threads.
var DefaultSubreddits = []string{"ifyoulikeblank", "MovieSuggestions", "flicks", "TrueFilm", "criterion"}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8787,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "/data/reelrank",
		},
		TMDb: TMDbConfig{
			BaseURL:   "https://api.themoviedb.org/3",
			RateLimit: 10,
			Burst:     10,
			Timeout:   4 * time.Second,
		},
		Reddit: RedditConfig{
			Enabled:    true,
			BaseURL:    "https://www.reddit.com",
			Subreddits: append([]string(nil), DefaultSubreddits...),
			UserAgent:  "LetterboxdRecs/1.0",
			RateLimit:  2,
			Burst:      2,
			Timeout:    3500 * time.Millisecond,
		},
		TasteIO: TasteIOConfig{
			Enabled:   true,
			BaseURL:   "https://www.taste.io",
			UserAgent: "LetterboxdRecs/1.0",
			RateLimit: 2,
			Burst:     2,
			Timeout:   3500 * time.Millisecond,
		},
		Letterboxd: LetterboxdConfig{
			BaseURL:   "https://letterboxd.com",
			PageDelay: 2 * time.Second,
			UserAgent: "Mozilla/5.0 (compatible; Reelrank/1.0)",
			Timeout:   8 * time.Second,
		},
		Recommend: RecommendConfig{
			MaxSeeds:             15,
			MaxRecommendations:   20,
			PopularityFilter:     1,
			CanonicalConcurrency: 4,
			GenerationTimeout:    5 * time.Minute,
		},
		Proxy: ProxyConfig{
			Enabled:       false,
			UpstreamURL:   "https://api.themoviedb.org/3",
			SearchTTL:     600 * time.Second,
			MovieTTL:      21600 * time.Second,
			CacheBackend:  "memory",
			CacheCapacity: 10000,
			RedisAddr:     "localhost:6379",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
	}
}

// Load builds the configuration: defaults, then config file, then env.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	if err := processSecondsFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"reddit.subreddits",
	"proxy.allowed_origins",
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// secondsConfigPaths accept a bare integer, read as seconds, so that
// CACHE_TTL_SEARCH=600 keeps working alongside CACHE_TTL_SEARCH=10m.
var secondsConfigPaths = []string{
	"proxy.search_ttl",
	"proxy.movie_ttl",
}

func processSecondsFields(k *koanf.Koanf) error {
	for _, path := range secondsConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			if err := k.Set(path, (time.Duration(n) * time.Second).String()); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"storage_backend": "storage.backend",
	"storage_path":    "storage.path",

	"tmdb_api_key":        "tmdb.api_key",
	"tmdb_base_url":       "tmdb.base_url",
	"tmdb_proxy_base_url": "tmdb.proxy_base_url",
	"tmdb_proxy_origin":   "tmdb.proxy_origin",
	"tmdb_rate_limit":     "tmdb.rate_limit",
	"tmdb_burst":          "tmdb.burst",
	"tmdb_timeout":        "tmdb.timeout",

	"reddit_enabled":    "reddit.enabled",
	"reddit_base_url":   "reddit.base_url",
	"reddit_subreddits": "reddit.subreddits",
	"reddit_user_agent": "reddit.user_agent",
	"reddit_rate_limit": "reddit.rate_limit",
	"reddit_timeout":    "reddit.timeout",

	"tasteio_enabled":    "tasteio.enabled",
	"tasteio_base_url":   "tasteio.base_url",
	"tasteio_rate_limit": "tasteio.rate_limit",
	"tasteio_timeout":    "tasteio.timeout",

	"letterboxd_base_url":   "letterboxd.base_url",
	"letterboxd_username":   "letterboxd.username",
	"letterboxd_page_delay": "letterboxd.page_delay",
	"letterboxd_timeout":    "letterboxd.timeout",

	"max_seeds":             "recommend.max_seeds",
	"max_recommendations":   "recommend.max_recommendations",
	"popularity_filter":     "recommend.popularity_filter",
	"canonical_concurrency": "recommend.canonical_concurrency",
	"generation_timeout":    "recommend.generation_timeout",

	"proxy_enabled":        "proxy.enabled",
	"tmdb_proxy_api_key":   "proxy.api_key",
	"tmdb_upstream_url":    "proxy.upstream_url",
	"allowed_origin":       "proxy.allowed_origins",
	"cache_ttl_search":     "proxy.search_ttl",
	"cache_ttl_movie":      "proxy.movie_ttl",
	"proxy_cache_backend":  "proxy.cache_backend",
	"proxy_cache_capacity": "proxy.cache_capacity",
	"redis_addr":           "proxy.redis_addr",
	"redis_password":       "proxy.redis_password",
	"redis_db":             "proxy.redis_db",

	"cors_origins":        "security.cors_origins",
	"rate_limit_reqs":     "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"reelrank_secret_key": "security.secret_key",
}

// envTransformFunc maps known environment variables onto koanf paths.
// Unknown variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
