// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/cache"
)

const testOrigin = "https://letterboxd.com"

// upstream is a fake TMDb that records what it was asked.
type upstream struct {
	server *httptest.Server
	calls  atomic.Int32

	mu       sync.Mutex
	queries  []string
	auth     []string
	status   int
	v3Only   bool
	release  chan struct{}
	received chan struct{}
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{status: http.StatusOK}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.mu.Lock()
		u.queries = append(u.queries, r.URL.RawQuery)
		u.auth = append(u.auth, r.Header.Get("Authorization"))
		status, v3Only, release, received := u.status, u.v3Only, u.release, u.received
		u.mu.Unlock()

		if received != nil {
			received <- struct{}{}
		}
		if release != nil {
			<-release
		}
		if v3Only && r.URL.Query().Get("api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) lastQuery() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.queries) == 0 {
		return ""
	}
	return u.queries[len(u.queries)-1]
}

func (u *upstream) authAt(i int) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if i >= len(u.auth) {
		return ""
	}
	return u.auth[i]
}

func newHandler(u *upstream, mutate func(*Config)) *Handler {
	cfg := Config{
		AllowedOrigins: []string{testOrigin},
		APIKey:         "secret",
		UpstreamURL:    u.server.URL + "/3",
		Cache:          cache.NewMemory(100),
		HTTP:           u.server.Client(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func get(h http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body["error"]
}

func TestNormalizeOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"https://Letterboxd.com/", "https://letterboxd.com"},
		{"  https://letterboxd.com//  ", "https://letterboxd.com"},
		{"", ""},
		{"   ", ""},
		{"https://letterboxd.com:443", "https://letterboxd.com"},
		{"http://letterboxd.com:80/", "http://letterboxd.com"},
		{"http://letterboxd.com:443", "http://letterboxd.com:443"},
		{"https://letterboxd.com:8443", "https://letterboxd.com:8443"},
		{"http://localhost:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		if got := NormalizeOrigin(tt.in); got != tt.want {
			t.Errorf("NormalizeOrigin(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"origin wins", map[string]string{"Origin": "https://a.example/", OriginHeader: "https://b.example", "Referer": "https://c.example/x"}, "https://a.example"},
		{"explicit header", map[string]string{OriginHeader: "HTTPS://B.example", "Referer": "https://c.example/x"}, "https://b.example"},
		{"referer origin", map[string]string{"Referer": "https://c.example:8443/film/heat/?x=1"}, "https://c.example:8443"},
		{"referer default https port", map[string]string{"Referer": "https://letterboxd.com:443/film/heat/"}, "https://letterboxd.com"},
		{"referer default http port", map[string]string{"Referer": "http://letterboxd.com:80/film/heat/"}, "http://letterboxd.com"},
		{"origin default port", map[string]string{"Origin": "https://letterboxd.com:443"}, "https://letterboxd.com"},
		{"bad referer", map[string]string{"Referer": "not a url"}, ""},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/v1/tmdb/search/movie", http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientOrigin(req); got != tt.want {
				t.Errorf("ClientOrigin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandler_RefererWithDefaultPort(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, nil)

	tests := []struct {
		name    string
		referer string
		status  int
	}{
		{"explicit https port", "https://letterboxd.com:443/film/heat/", http.StatusOK},
		{"plain referer", "https://letterboxd.com/film/heat/", http.StatusOK},
		{"other port", "https://letterboxd.com:8443/film/heat/", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := get(h, "/v1/tmdb/search/movie?query=heat", map[string]string{"Referer": tt.referer})
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandler_Rejections(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, nil)
	misconfigured := newHandler(u, func(c *Config) { c.AllowedOrigins = []string{" , "} })

	tests := []struct {
		name    string
		handler http.Handler
		method  string
		target  string
		origin  string
		status  int
		message string
	}{
		{"empty allow-list", misconfigured, http.MethodGet, "/v1/tmdb/search/movie", testOrigin, 500, "Proxy misconfigured: ALLOWED_ORIGIN is required"},
		{"no origin", h, http.MethodGet, "/v1/tmdb/search/movie", "", 403, "Origin or Referer header required"},
		{"foreign origin", h, http.MethodGet, "/v1/tmdb/search/movie", "https://evil.example", 403, "Origin not allowed"},
		{"post", h, http.MethodPost, "/v1/tmdb/search/movie", testOrigin, 405, "Method not allowed"},
		{"outside prefix", h, http.MethodGet, "/v2/other", testOrigin, 404, "Not found"},
		{"disallowed path", h, http.MethodGet, "/v1/tmdb/person/5", testOrigin, 403, "Path not allowed"},
		{"movie subresource", h, http.MethodGet, "/v1/tmdb/movie/5/credits", testOrigin, 403, "Path not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Errorf("error = %q, want %q", msg, tt.message)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control = %q, want no-store", cc)
			}
			if v := rec.Header().Get("Vary"); v != "Origin" {
				t.Errorf("Vary = %q, want Origin", v)
			}
		})
	}
	if n := u.calls.Load(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestHandler_Options(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/tmdb/search/movie", http.NoBody)
	req.Header.Set("Origin", "https://letterboxd.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	want := map[string]string{
		"Access-Control-Allow-Origin":  "https://letterboxd.com",
		"Access-Control-Allow-Methods": "GET, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Max-Age":       "86400",
		"Vary":                         "Origin",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	// Allowed via the explicit header, but a preflight needs a real Origin.
	req = httptest.NewRequest(http.MethodOptions, "/v1/tmdb/search/movie", http.NoBody)
	req.Header.Set(OriginHeader, testOrigin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("preflight without Origin status = %d, want 403", rec.Code)
	}
}

func TestHandler_ForwardsOnlyAllowedParams(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, nil)

	rec := get(h, "/v1/tmdb/search/movie?query=heat&year=1995&api_key=stolen&callback=x&page=2", map[string]string{"Origin": testOrigin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if q := u.lastQuery(); q != "page=2&query=heat&year=1995" {
		t.Errorf("upstream query = %q", q)
	}
	if auth := u.authAt(0); auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want bearer token", auth)
	}
}

func TestHandler_CachesSuccess(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, func(c *Config) { c.MovieTTL = 90 * time.Second })
	headers := map[string]string{"Referer": "https://letterboxd.com/film/heat/"}

	first := get(h, "/v1/tmdb/movie/949?append_to_response=recommendations", headers)
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if got := first.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", got)
	}
	if got := first.Header().Get("Cache-Control"); got != "public, max-age=90" {
		t.Errorf("Cache-Control = %q", got)
	}
	// Referer-only callers are allowed but get no ACAO echo.
	if got := first.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty", got)
	}

	second := get(h, "/v1/tmdb/movie/949?append_to_response=recommendations", headers)
	if got := second.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("cached body = %q, want %q", second.Body.String(), first.Body.String())
	}
	if n := u.calls.Load(); n != 1 {
		t.Errorf("upstream calls = %d, want 1", n)
	}

	search := get(h, "/v1/tmdb/search/movie?query=heat", map[string]string{"Origin": testOrigin})
	if got := search.Header().Get("Cache-Control"); got != "public, max-age=600" {
		t.Errorf("search Cache-Control = %q", got)
	}
	if got := search.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("ACAO = %q, want %q", got, testOrigin)
	}
}

func TestHandler_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	u.status = http.StatusNotFound
	h := newHandler(u, nil)
	headers := map[string]string{"Origin": testOrigin}

	for i := 0; i < 2; i++ {
		rec := get(h, "/v1/tmdb/movie/1", headers)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if got := rec.Header().Get("X-Cache"); got != "MISS" {
			t.Errorf("X-Cache = %q, want MISS", got)
		}
		if got := rec.Header().Get("Cache-Control"); got != "" {
			t.Errorf("Cache-Control = %q, want none", got)
		}
	}
	if n := u.calls.Load(); n != 2 {
		t.Errorf("upstream calls = %d, want 2", n)
	}
}

func TestHandler_FallsBackToAPIKey(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	u.v3Only = true
	h := newHandler(u, nil)

	rec := get(h, "/v1/tmdb/movie/949", map[string]string{"Origin": testOrigin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if n := u.calls.Load(); n != 2 {
		t.Fatalf("upstream calls = %d, want 2", n)
	}
	if q := u.lastQuery(); q != "api_key=secret" {
		t.Errorf("fallback query = %q", q)
	}
	if auth := u.authAt(1); auth != "" {
		t.Errorf("fallback sent Authorization %q", auth)
	}
}

func TestHandler_MissingKey(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, func(c *Config) { c.APIKey = "  " })

	rec := get(h, "/v1/tmdb/movie/949", map[string]string{"Origin": testOrigin})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "TMDB_API_KEY is missing" {
		t.Errorf("error = %q", msg)
	}
	if n := u.calls.Load(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestHandler_SharesInflightUpstream(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	u.release = make(chan struct{})
	u.received = make(chan struct{}, 8)
	h := newHandler(u, nil)

	const callers = 6
	var wg sync.WaitGroup
	bodies := make([]string, callers)
	codes := make([]int, callers)

	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := get(h, "/v1/tmdb/search/movie?query=ronin", map[string]string{"Origin": testOrigin})
			codes[i] = rec.Code
			bodies[i] = rec.Body.String()
		}()
	}

	start(0)
	<-u.received
	for i := 1; i < callers; i++ {
		start(i)
	}
	close(u.release)
	wg.Wait()

	if n := u.calls.Load(); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
	for i := range bodies {
		if codes[i] != http.StatusOK {
			t.Errorf("caller %d status = %d", i, codes[i])
		}
		if bodies[i] != bodies[0] {
			t.Errorf("caller %d body = %q, want %q", i, bodies[i], bodies[0])
		}
	}
}

func TestHandler_UpstreamUnreachable(t *testing.T) {
	t.Parallel()
	u := newUpstream(t)
	h := newHandler(u, nil)
	u.server.Close()

	rec := get(h, "/v1/tmdb/movie/949", map[string]string{"Origin": testOrigin})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "Upstream request failed") {
		t.Errorf("body = %q", body)
	}
}
