// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/ratelimit"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 8 << 20

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the final URL after redirects.
	URL string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError reports a server-side failure counted by the breaker.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d", e.Source, e.StatusCode)
}

// Config assembles a Client.
type Config struct {
	Name      string // "tmdb", "reddit"; labels metrics and the breaker
	HTTP      fetch.Doer
	Fetch     fetch.Options
	RateLimit float64 // requests per second; 0 disables admission control
	Burst     int
	UserAgent string
	Breaker   BreakerSettings
}

// Client sends rate limited, breaker protected, retried requests.
type Client struct {
	name      string
	fetch     *fetch.Client
	limiter   *ratelimit.Limiter
	breaker   *gobreaker.CircuitBreaker[*Response]
	userAgent string
}

// NewClient builds a Client from cfg. Zero breaker settings use
// DefaultBreakerSettings.
func NewClient(cfg Config) *Client {
	if cfg.Breaker == (BreakerSettings{}) {
		cfg.Breaker = DefaultBreakerSettings()
	}
	c := &Client{
		name:      cfg.Name,
		fetch:     fetch.New(cfg.HTTP, cfg.Name, cfg.Fetch),
		breaker:   newBreaker(cfg.Name+"-api", cfg.Breaker),
		userAgent: cfg.UserAgent,
	}
	if cfg.RateLimit > 0 {
		c.limiter = ratelimit.New(cfg.RateLimit, cfg.Burst)
	}
	return c
}

// Name returns the source label.
func (c *Client) Name() string {
	return c.name
}

// Get issues a GET for url with the optional extra headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.name, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(req)
}

// Do sends req and reads the whole body. A 5xx status is returned as a
// *StatusError together with the response.
func (c *Client) Do(req *http.Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(req.Context()); err != nil {
			return nil, err
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var served *Response
	resp, err := c.breaker.Execute(func() (*Response, error) {
		r, err := c.send(req)
		if err != nil {
			return nil, err
		}
		served = r
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, &StatusError{Source: c.name, StatusCode: r.StatusCode}
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		var se *StatusError
		if errors.As(err, &se) {
			return served, err
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(req *http.Request) (*Response, error) {
	resp, err := c.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", c.name, err)
	}
	final := req.URL.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        final,
	}, nil
}
