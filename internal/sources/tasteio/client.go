// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package tasteio reads "movies like" lists from Taste.io.
package tasteio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/sources"
)

// Defaults.
const (
	DefaultBaseURL   = "https://www.taste.io"
	DefaultUserAgent = "Mozilla/5.0 (compatible; Reelrank/1.0)"
	DefaultRateLimit = 2
	DefaultBurst     = 2
	DefaultDeadline  = 3500 * time.Millisecond
)

// Recommendation is one entry of a similar-titles list. Year is 0 when the
// page does not carry one.
type Recommendation struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	Slug  string `json:"slug"`
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	UserAgent string
	RateLimit float64
	Burst     int
	Deadline  time.Duration
	HTTP      fetch.Doer
}

// Client fetches similar titles.
type Client struct {
	http    *sources.Client
	baseURL string
	logger  zerolog.Logger
}

// New creates a Client with defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: cfg.Deadline}
	}
	return &Client{
		http: sources.NewClient(sources.Config{
			Name:      "tasteio",
			HTTP:      cfg.HTTP,
			Fetch:     fetch.Options{MaxRetries: 2, Deadline: cfg.Deadline, BaseDelay: 500 * time.Millisecond},
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
			UserAgent: cfg.UserAgent,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logging.WithComponent("tasteio"),
	}
}

// Similar returns titles Taste.io lists as similar to title. An unknown
// title yields an empty list; request failures are errors.
func (c *Client) Similar(ctx context.Context, title string) ([]Recommendation, error) {
	slug, err := c.resolveSlug(ctx, title)
	if err != nil || slug == "" {
		return nil, err
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/movies/like/"+url.PathEscape(slug), http.Header{
		"Accept": {"text/html,application/xhtml+xml"},
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("tasteio: similar page for %s returned %d", slug, resp.StatusCode)
	}

	recs := ParseSimilar(string(resp.Body))
	c.logger.Debug().Str("slug", slug).Int("count", len(recs)).Msg("Parsed similar titles")
	return recs, nil
}

func (c *Client) resolveSlug(ctx context.Context, title string) (string, error) {
	resp, err := c.http.Get(ctx, c.baseURL+"/api/movies/search?q="+url.QueryEscape(title), http.Header{
		"Accept": {"application/json"},
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("tasteio: search returned %d", resp.StatusCode)
	}

	var body struct {
		Movies []struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		} `json:"movies"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", fmt.Errorf("tasteio: decode search: %w", err)
	}
	if len(body.Movies) == 0 {
		return "", nil
	}
	return body.Movies[0].Slug, nil
}
