// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package fetch wraps an HTTP client with bounded retries for idempotent
// requests. Every upstream adapter sends its traffic through a Client.
package fetch

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
)

// ErrDeadlineExceeded is returned when the overall deadline passed before any
// attempt produced a response or a transport error.
var ErrDeadlineExceeded = errors.New("fetch: deadline exceeded")

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options bounds a single logical request.
type Options struct {
	MaxRetries int           // retries after the first attempt
	Deadline   time.Duration // budget for all attempts and backoff sleeps
	BaseDelay  time.Duration // first backoff, doubled per attempt
}

// DefaultOptions returns 2 retries within a 4 second budget.
func DefaultOptions() Options {
	return Options{MaxRetries: 2, Deadline: 4 * time.Second, BaseDelay: 500 * time.Millisecond}
}

// Client retries GET and HEAD requests on 429, 5xx and transport failures.
type Client struct {
	doer   Doer
	source string
	opts   Options
	logger zerolog.Logger

	now    func() time.Time
	jitter func() float64
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Client. source labels logs and metrics ("tmdb", "reddit").
// Zero Options select DefaultOptions.
func New(doer Doer, source string, opts Options) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	def := DefaultOptions()
	if opts == (Options{}) {
		opts = def
	}
	if opts.Deadline <= 0 {
		opts.Deadline = def.Deadline
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = def.BaseDelay
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		doer:   doer,
		source: source,
		opts:   opts,
		logger: logging.WithComponent("fetch").With().Str("source", source).Logger(),
		now:    time.Now,
		jitter: func() float64 { return 0.8 + rand.Float64()*0.4 },
		sleep:  sleepContext,
	}
}

// Do sends req. Non-idempotent methods pass through untouched.
//
// The returned response body must be closed; closing it also releases the
// deadline attached to the request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return c.doer.Do(req)
	}

	start := c.now()
	resp, err := c.do(req, start)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.RecordUpstream(c.source, status, c.now().Sub(start), err)
	return resp, err
}

func (c *Client) do(req *http.Request, start time.Time) (*http.Response, error) {
	parent := req.Context()
	deadline := start.Add(c.opts.Deadline)
	ctx, cancel := context.WithDeadline(parent, deadline)

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; ; attempt++ {
		resp, err := c.doer.Do(req.Clone(ctx))

		if parent.Err() != nil {
			if resp != nil {
				drain(resp)
			}
			if lastResp != nil {
				drain(lastResp)
			}
			cancel()
			return nil, parent.Err()
		}

		if err == nil && !retryableStatus(resp.StatusCode) {
			if lastResp != nil {
				drain(lastResp)
			}
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}

		var reason string
		if err != nil {
			lastErr = err
			reason = transportReason(err)
		} else {
			if lastResp != nil {
				drain(lastResp)
			}
			lastResp = resp
			reason = statusReason(resp.StatusCode)
		}

		if attempt >= c.opts.MaxRetries {
			break
		}
		remaining := deadline.Sub(c.now())
		if remaining <= 0 {
			break
		}

		delay := c.backoff(attempt, resp)
		if delay > remaining {
			delay = remaining
		}

		c.logger.Warn().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Str("reason", reason).
			Msg("retrying upstream request")
		metrics.RecordRetry(c.source, reason)

		if err := c.sleep(parent, delay); err != nil {
			if lastResp != nil {
				drain(lastResp)
			}
			cancel()
			return nil, err
		}
		if !c.now().Before(deadline) {
			break
		}
	}

	if lastResp != nil {
		lastResp.Body = &cancelOnClose{ReadCloser: lastResp.Body, cancel: cancel}
		return lastResp, nil
	}
	cancel()
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrDeadlineExceeded
}

// backoff returns base * 2^attempt with ±20% jitter, or the server's
// Retry-After value when one is present.
func (c *Client) backoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()); ok {
			return d
		}
	}
	d := float64(c.opts.BaseDelay) * float64(int64(1)<<attempt) * c.jitter()
	return time.Duration(d)
}

// ParseRetryAfter reads a Retry-After value given as delta seconds or an
// HTTP-date. Dates in the past yield zero.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	if d := t.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func statusReason(code int) string {
	if code == http.StatusTooManyRequests {
		return "429"
	}
	return "5xx"
}

func transportReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "network"
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
