// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelrank/internal/fetch"
)

func testClient(name string, s BreakerSettings) *Client {
	return NewClient(Config{
		Name:      name,
		HTTP:      http.DefaultClient,
		Fetch:     fetch.Options{MaxRetries: 0, Deadline: time.Second, BaseDelay: time.Millisecond},
		UserAgent: "reelrank-test",
		Breaker:   s,
	})
}

func TestClient_GetReadsBodyAndSetsUserAgent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "reelrank-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("X-Extra") != "1" {
			t.Errorf("X-Extra header missing")
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient("test-get", BreakerSettings{})
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"X-Extra": {"1"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !resp.OK() || string(resp.Body) != `{"ok":true}` {
		t.Errorf("Get() = %d %q", resp.StatusCode, resp.Body)
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient("test-404", BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Interval: time.Minute, Timeout: time.Minute, HalfOpenMax: 1})
	for i := 0; i < 5; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d", resp.StatusCode)
		}
	}
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient("test-502", BreakerSettings{MinRequests: 2, FailureRatio: 0.5, Interval: time.Minute, Timeout: time.Minute, HalfOpenMax: 1})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := c.Get(ctx, srv.URL, nil)
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
			t.Fatalf("Get() error = %v, want StatusError 502", err)
		}
		if resp == nil || resp.StatusCode != http.StatusBadGateway {
			t.Errorf("response not returned with StatusError")
		}
	}

	if _, err := c.Get(ctx, srv.URL, nil); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Get() after trip error = %v, want ErrOpenState", err)
	}
	if hits.Load() != 2 {
		t.Errorf("upstream hits = %d, want 2", hits.Load())
	}
}
