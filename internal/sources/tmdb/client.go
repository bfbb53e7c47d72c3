// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package tmdb is the adapter for The Movie Database, the primary source of
// candidates and the authority for film identity.
//
// Requests go either directly to the TMDb API (Bearer token, falling back to
// the v3 api_key query parameter on 401) or, when no key is configured,
// through a shared Reelrank proxy that holds the key.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/models"
	"github.com/tomtom215/reelrank/internal/ratelimit"
	"github.com/tomtom215/reelrank/internal/sources"
)

// Defaults for the direct API.
const (
	DefaultBaseURL   = "https://api.themoviedb.org/3"
	DefaultRateLimit = 10
	DefaultBurst     = 10

	// OriginHeader identifies the calling deployment to a shared proxy.
	OriginHeader = "X-Reelrank-Origin"

	resolveConcurrency = 10
)

// ErrNotConfigured is returned when neither an API key nor a proxy is set.
var ErrNotConfigured = errors.New("tmdb: no API key or proxy configured")

// APIError is a non-2xx answer from TMDb or the proxy.
type APIError struct {
	StatusCode int
	Status     string
	Proxy      bool
	Reason     string // the proxy's {"error"} message, if any
}

func (e *APIError) Error() string {
	if e.Proxy {
		if e.Reason != "" {
			return fmt.Sprintf("TMDb proxy error: %s (%s)", e.Status, e.Reason)
		}
		return "TMDb proxy error: " + e.Status
	}
	return "TMDb API error: " + e.Status
}

// IDStore is the permanent slug -> TMDb id cache. *storage.IDCache
// satisfies it.
type IDStore interface {
	All(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, mappings map[string]int) error
}

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	ProxyBaseURL string
	ProxyOrigin  string
	RateLimit    float64
	Burst        int
	HTTP         fetch.Doer
	Fetch        fetch.Options
}

// Client talks to TMDb. It is safe for concurrent use.
type Client struct {
	http         *sources.Client
	limiter      *ratelimit.Limiter
	group        singleflight.Group
	ids          IDStore
	baseURL      string
	proxyBaseURL string
	proxyOrigin  string
	logger       zerolog.Logger

	mu     sync.RWMutex
	apiKey string
}

// New creates a Client. ids may be nil, in which case ResolveIDs always
// searches.
func New(cfg Config, ids IDStore) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		http: sources.NewClient(sources.Config{
			Name:  "tmdb",
			HTTP:  cfg.HTTP,
			Fetch: cfg.Fetch,
		}),
		limiter:      ratelimit.New(cfg.RateLimit, cfg.Burst),
		ids:          ids,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		proxyBaseURL: strings.TrimRight(cfg.ProxyBaseURL, "/"),
		proxyOrigin:  cfg.ProxyOrigin,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		logger:       logging.WithComponent("tmdb"),
	}
}

// SetAPIKey replaces the key, switching between direct and proxy mode.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Configured reports whether requests can be made.
func (c *Client) Configured() bool {
	return c.key() != "" || c.proxyBaseURL != ""
}

// UsesProxy reports whether requests go through the shared proxy.
func (c *Client) UsesProxy() bool {
	return c.key() == "" && c.proxyBaseURL != ""
}

// SearchMovie returns the best match for title, preferring an exact
// release year when year > 0. It returns nil when nothing matched.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	params := url.Values{"query": {title}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var page Page
	if err := c.get(ctx, "/search/movie", params, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	if year > 0 {
		for i := range page.Results {
			if page.Results[i].Year() == year {
				return &page.Results[i], nil
			}
		}
	}
	return &page.Results[0], nil
}

// GetMovieWithRecommendations fetches a movie with its recommendations and
// similar lists appended.
func (c *Client) GetMovieWithRecommendations(ctx context.Context, id int) (*MovieDetail, error) {
	var detail MovieDetail
	params := url.Values{"append_to_response": {"recommendations,similar"}}
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), params, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ResolveIDs maps films to TMDb ids. Cached mappings are used as is;
// misses are searched concurrently and each hit is saved to the cache.
// Films that fail to resolve are left out.
func (c *Client) ResolveIDs(ctx context.Context, films []models.ScrapedFilm) map[string]int {
	resolved := make(map[string]int, len(films))
	cached := map[string]int{}
	if c.ids != nil {
		all, err := c.ids.All(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to read TMDb id cache")
		} else {
			cached = all
		}
	}

	var misses []models.ScrapedFilm
	for _, f := range films {
		if id, ok := cached[f.Slug]; ok {
			resolved[f.Slug] = id
			continue
		}
		misses = append(misses, f)
	}
	if len(misses) == 0 {
		return resolved
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for _, f := range misses {
		g.Go(func() error {
			movie, err := c.SearchMovie(gctx, f.Title, f.Year)
			if err != nil {
				c.logger.Debug().Err(err).Str("slug", f.Slug).Msg("TMDb id lookup failed")
				return nil
			}
			if movie == nil {
				return nil
			}
			if c.ids != nil {
				if err := c.ids.Save(gctx, map[string]int{f.Slug: movie.ID}); err != nil {
					c.logger.Warn().Err(err).Str("slug", f.Slug).Msg("Failed to cache TMDb id")
				}
			}
			mu.Lock()
			resolved[f.Slug] = movie.ID
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return resolved
}

// get admits the request, joins an identical in-flight request and decodes
// the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}

	key := c.key()
	var target, mode string
	switch {
	case key != "":
		target, mode = c.baseURL+path, "direct"
	case c.proxyBaseURL != "":
		target, mode = c.proxyBaseURL+"/v1/tmdb"+path, "proxy"
	default:
		return ErrNotConfigured
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	flightKey := mode + ":" + target + ":" + strconv.FormatBool(key != "")

	// The shared request must outlive any single caller; each caller still
	// stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		if mode == "proxy" {
			return c.fetchProxy(shared, target)
		}
		return c.fetchDirect(shared, target, key)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
			return fmt.Errorf("tmdb: decode %s: %w", path, err)
		}
		return nil
	}
}

func (c *Client) fetchDirect(ctx context.Context, target, key string) ([]byte, error) {
	resp, err := c.http.Get(ctx, target, http.Header{"Authorization": {"Bearer " + key}})
	if resp == nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Bearer rejected: the key is a v3 API key.
		u, perr := url.Parse(target)
		if perr != nil {
			return nil, fmt.Errorf("tmdb: parse %s: %w", target, perr)
		}
		q := u.Query()
		q.Set("api_key", key)
		u.RawQuery = q.Encode()
		resp, err = c.http.Get(ctx, u.String(), nil)
		if resp == nil {
			return nil, err
		}
	}

	if !resp.OK() {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: statusText(resp.StatusCode)}
	}
	return resp.Body, nil
}

func (c *Client) fetchProxy(ctx context.Context, target string) ([]byte, error) {
	var header http.Header
	if c.proxyOrigin != "" {
		header = http.Header{OriginHeader: {c.proxyOrigin}}
	}
	resp, err := c.http.Get(ctx, target, header)
	if resp == nil {
		return nil, err
	}
	if !resp.OK() {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: statusText(resp.StatusCode), Proxy: true}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body, &body) == nil {
			apiErr.Reason = body.Error
		}
		return nil, apiErr
	}
	return resp.Body, nil
}

func statusText(code int) string {
	return strconv.Itoa(code) + " " + http.StatusText(code)
}
