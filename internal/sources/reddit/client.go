// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package reddit mines film suggestions from recommendation subreddits.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/sources"
)

// Defaults.
const (
	DefaultBaseURL   = "https://www.reddit.com"
	DefaultUserAgent = "LetterboxdRecs/1.0"
	DefaultRateLimit = 2
	DefaultBurst     = 2
	DefaultDeadline  = 3500 * time.Millisecond
)

// DefaultSubreddits are searched for every seed.
var DefaultSubreddits = []string{"ifyoulikeblank", "MovieSuggestions", "flicks", "TrueFilm", "criterion"}

// ErrAllFailed is returned when no subreddit search succeeded.
var ErrAllFailed = errors.New("reddit: all subreddit searches failed")

// Recommendation is a title suggested in a post.
type Recommendation struct {
	Title        string `json:"movieTitle"`
	PostScore    int    `json:"postScore"`
	CommentScore int    `json:"commentScore"`
	Source       string `json:"source"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Permalink   string `json:"permalink"`
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Subreddits []string
	UserAgent  string
	RateLimit  float64
	Burst      int
	Deadline   time.Duration
	HTTP       fetch.Doer
}

// Client searches subreddits.
type Client struct {
	http       *sources.Client
	baseURL    string
	subreddits []string
	logger     zerolog.Logger
}

// New creates a Client with defaults for unset fields.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = DefaultSubreddits
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
			Name:      "reddit",
			HTTP:      cfg.HTTP,
			Fetch:     fetch.Options{MaxRetries: 2, Deadline: cfg.Deadline, BaseDelay: 500 * time.Millisecond},
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
			UserAgent: cfg.UserAgent,
		}),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		subreddits: cfg.Subreddits,
		logger:     logging.WithComponent("reddit"),
	}
}

// Search queries every subreddit concurrently for title and returns the
// extracted suggestions, one per lowercase title with the best score kept.
// It fails only when every subreddit request failed.
func (c *Client) Search(ctx context.Context, title string) ([]Recommendation, error) {
	type outcome struct {
		recs []Recommendation
		err  error
	}
	outcomes := make([]outcome, len(c.subreddits))

	var wg sync.WaitGroup
	for i, sub := range c.subreddits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recs, err := c.searchSubreddit(ctx, sub, title)
			outcomes[i] = outcome{recs: recs, err: err}
		}()
	}
	wg.Wait()

	var all []Recommendation
	failed := 0
	var lastErr error
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			lastErr = o.err
			c.logger.Debug().Err(o.err).Str("subreddit", c.subreddits[i]).Msg("Subreddit search failed")
			continue
		}
		all = append(all, o.recs...)
	}
	if failed == len(c.subreddits) {
		return nil, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
	}
	return dedupe(all), nil
}

func (c *Client) searchSubreddit(ctx context.Context, sub, title string) ([]Recommendation, error) {
	q := url.QueryEscape(`"` + title + `" movie`)
	target := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=1&sort=relevance&limit=3", c.baseURL, sub, q)

	resp, err := c.http.Get(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("reddit: r/%s returned %d", sub, resp.StatusCode)
	}

	var l listing
	if err := json.Unmarshal(resp.Body, &l); err != nil {
		return nil, fmt.Errorf("reddit: decode r/%s: %w", sub, err)
	}

	var recs []Recommendation
	for _, child := range l.Data.Children {
		p := child.Data
		for _, t := range ExtractTitles(p.Selftext + " " + p.Title) {
			if strings.EqualFold(t, title) {
				continue
			}
			recs = append(recs, Recommendation{
				Title:     t,
				PostScore: p.Score,
				Source:    "reddit.com" + p.Permalink,
			})
		}
	}
	return recs, nil
}

// dedupe keeps first-seen order and the highest scoring entry per
// lowercase title.
func dedupe(recs []Recommendation) []Recommendation {
	idx := make(map[string]int, len(recs))
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		key := strings.ToLower(r.Title)
		i, ok := idx[key]
		if !ok {
			idx[key] = len(out)
			out = append(out, r)
			continue
		}
		if r.PostScore+r.CommentScore > out[i].PostScore+out[i].CommentScore {
			out[i] = r
		}
	}
	return out
}
