// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/sources"
	"github.com/tomtom215/reelrank/internal/titles"
)

// Defaults.
const (
	DefaultBaseURL   = titles.LetterboxdBaseURL
	DefaultUserAgent = "Mozilla/5.0 (compatible; Reelrank/1.0)"
	DefaultTimeout   = 10 * time.Second
	DefaultPageDelay = 2 * time.Second
)

// reservedPaths are top-level Letterboxd paths that are not profiles.
var reservedPaths = map[string]bool{
	"film": true, "films": true, "list": true, "lists": true, "actor": true,
	"director": true, "search": true, "settings": true, "about": true,
	"pro": true, "patron": true, "contact": true, "legal": true, "terms": true,
	"privacy": true, "activity": true, "members": true, "journal": true,
	"year": true, "crew": true,
}

// IsReservedUsername reports whether name is a site path rather than a
// member profile.
func IsReservedUsername(name string) bool {
	return reservedPaths[strings.ToLower(name)]
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	HTTP      fetch.Doer
}

// Client issues Letterboxd page requests. Redirects are followed and the
// final URL is kept on the response.
type Client struct {
	http    *sources.Client
	baseURL string
}

// NewClient creates a Client with defaults for unset fields.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http: sources.NewClient(sources.Config{
			Name:      "letterboxd",
			HTTP:      cfg.HTTP,
			Fetch:     fetch.Options{MaxRetries: 2, Deadline: cfg.Timeout, BaseDelay: 500 * time.Millisecond},
			UserAgent: cfg.UserAgent,
		}),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ProfilePageURL returns the URL of one page of a profile section such as
// "films" or "likes/films".
func (c *Client) ProfilePageURL(username, section string, page int) string {
	u := fmt.Sprintf("%s/%s/%s/", c.baseURL, username, section)
	if page > 1 {
		u += fmt.Sprintf("page/%d/", page)
	}
	return u
}

// FilmPageURL returns the film page URL on the configured host.
func (c *Client) FilmPageURL(slug string) string {
	return c.baseURL + "/film/" + slug + "/"
}

// Get fetches an absolute URL as HTML.
func (c *Client) Get(ctx context.Context, url string) (*sources.Response, error) {
	return c.http.Get(ctx, url, http.Header{"Accept": {"text/html,application/xhtml+xml"}})
}

// Do sends a prepared request through the shared upstream path.
func (c *Client) Do(req *http.Request) (*sources.Response, error) {
	return c.http.Do(req)
}
