// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/reelrank/internal/cache"
	"github.com/tomtom215/reelrank/internal/fetch"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
)

const (
	// PathPrefix is the public route prefix handled by the proxy.
	PathPrefix = "/v1/tmdb"

	// DefaultUpstreamURL is the TMDb v3 API root.
	DefaultUpstreamURL = "https://api.themoviedb.org/3"

	DefaultSearchTTL       = 600 * time.Second
	DefaultMovieTTL        = 21600 * time.Second
	DefaultUpstreamTimeout = 15 * time.Second

	// OriginHeader lets non-browser clients name their deployment origin.
	OriginHeader = "X-Reelrank-Origin"

	searchPath = "/search/movie"
)

var (
	moviePath = regexp.MustCompile(`^/movie/\d+$`)

	forwardedParams = map[string]bool{
		"query":              true,
		"year":               true,
		"language":           true,
		"page":               true,
		"include_adult":      true,
		"append_to_response": true,
	}

	errMissingKey = errors.New("TMDB_API_KEY is missing")
)

// Config configures a Handler.
type Config struct {
	AllowedOrigins  []string
	APIKey          string
	UpstreamURL     string
	SearchTTL       time.Duration
	MovieTTL        time.Duration
	UpstreamTimeout time.Duration
	Cache           cache.Edge
	HTTP            fetch.Doer
}

// Handler is a caching, origin-restricted reverse proxy in front of a
// small allow-listed subset of the TMDb API. It keeps the API key on the
// server and collapses concurrent identical upstream calls.
type Handler struct {
	allowed     map[string]bool
	apiKey      string
	upstream    string
	searchTTL   time.Duration
	movieTTL    time.Duration
	timeout     time.Duration
	cache       cache.Edge
	http        fetch.Doer
	group       singleflight.Group
	logger      zerolog.Logger
	hasAllowed  bool
	originOrder []string
}

// upstreamResult is what a single-flight leader hands to its followers.
type upstreamResult struct {
	status int
	body   []byte
}

// New creates a Handler. A nil cache gets an in-memory LRU.
//
//nolint:gocritic // config is read once at startup
func New(cfg Config) *Handler {
	if cfg.UpstreamURL == "" {
		cfg.UpstreamURL = DefaultUpstreamURL
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = DefaultSearchTTL
	}
	if cfg.MovieTTL <= 0 {
		cfg.MovieTTL = DefaultMovieTTL
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory(cache.DefaultCapacity)
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: cfg.UpstreamTimeout}
	}

	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	order := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		for _, part := range strings.Split(o, ",") {
			if n := NormalizeOrigin(part); n != "" && !allowed[n] {
				allowed[n] = true
				order = append(order, n)
			}
		}
	}

	return &Handler{
		allowed:     allowed,
		hasAllowed:  len(allowed) > 0,
		originOrder: order,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		upstream:    strings.TrimRight(cfg.UpstreamURL, "/"),
		searchTTL:   cfg.SearchTTL,
		movieTTL:    cfg.MovieTTL,
		timeout:     cfg.UpstreamTimeout,
		cache:       cfg.Cache,
		http:        cfg.HTTP,
		logger:      logging.WithComponent("proxy"),
	}
}

// AllowedOrigins returns the normalized allow-list in configuration order.
func (h *Handler) AllowedOrigins() []string {
	out := make([]string, len(h.originOrder))
	copy(out, h.originOrder)
	return out
}

// NormalizeOrigin trims whitespace and trailing slashes, lowercases and
// drops the scheme's default port.
func NormalizeOrigin(value string) string {
	o := strings.ToLower(strings.TrimRight(strings.TrimSpace(value), "/"))
	switch {
	case strings.HasPrefix(o, "http://"):
		return strings.TrimSuffix(o, ":80")
	case strings.HasPrefix(o, "https://"):
		return strings.TrimSuffix(o, ":443")
	}
	return o
}

// ClientOrigin returns the normalized caller origin taken from Origin, the
// explicit origin header or the Referer, in that order.
func ClientOrigin(r *http.Request) string {
	if o := NormalizeOrigin(r.Header.Get("Origin")); o != "" {
		return o
	}
	if o := NormalizeOrigin(r.Header.Get(OriginHeader)); o != "" {
		return o
	}
	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return NormalizeOrigin(u.Scheme + "://" + u.Host)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hasAllowed {
		h.writeError(w, r, http.StatusInternalServerError, "Proxy misconfigured: ALLOWED_ORIGIN is required")
		return
	}
	origin := ClientOrigin(r)
	if origin == "" {
		h.writeError(w, r, http.StatusForbidden, "Origin or Referer header required")
		return
	}
	if !h.allowed[origin] {
		h.writeError(w, r, http.StatusForbidden, "Origin not allowed")
		return
	}

	if r.Method == http.MethodOptions {
		h.handleOptions(w, r)
		return
	}
	if r.Method != http.MethodGet {
		h.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !strings.HasPrefix(r.URL.Path, PathPrefix+"/") {
		h.writeError(w, r, http.StatusNotFound, "Not found")
		return
	}

	tmdbPath := strings.TrimPrefix(r.URL.Path, PathPrefix)
	if !isAllowedPath(tmdbPath) {
		h.writeError(w, r, http.StatusForbidden, "Path not allowed")
		return
	}

	target := h.buildUpstreamURL(tmdbPath, r.URL.Query())
	ttl := h.ttlFor(tmdbPath)

	body, ok, err := h.cache.Get(r.Context(), target)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Edge cache lookup failed")
	}
	if ok {
		metrics.EdgeCacheHits.Inc()
		h.writeCached(w, r, http.StatusOK, body, ttl, "HIT")
		return
	}
	metrics.EdgeCacheMisses.Inc()

	leader := false
	v, err, _ := h.group.Do(target, func() (any, error) {
		leader = true
		return h.fetchAndStore(target, ttl)
	})
	if !leader {
		metrics.ProxySharedUpstream.Inc()
	}

	switch {
	case errors.Is(err, errMissingKey):
		h.writeError(w, r, http.StatusInternalServerError, errMissingKey.Error())
		return
	case err != nil:
		logging.Ctx(r.Context()).Warn().Err(err).Str("path", tmdbPath).Msg("TMDb upstream request failed")
		h.writeError(w, r, http.StatusBadGateway, "Upstream request failed")
		return
	}

	res, _ := v.(*upstreamResult)
	if res.status < 200 || res.status > 299 {
		h.writeUpstream(w, r, res)
		return
	}
	h.writeCached(w, r, res.status, res.body, ttl, "MISS")
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	if !h.corsHeaders(w, r) {
		h.writeError(w, r, http.StatusForbidden, "Origin not allowed")
		return
	}
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Content-Type")
	hdr.Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
	metrics.RecordProxyResponse(http.StatusNoContent, "MISS")
}

// fetchAndStore runs on the single-flight leader. It is detached from the
// leader's request context so a disconnecting client cannot fail the
// callers sharing its result.
func (h *Handler) fetchAndStore(target string, ttl time.Duration) (*upstreamResult, error) {
	if h.apiKey == "" {
		return nil, errMissingKey
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	res, err := h.doUpstream(ctx, target, true)
	if err != nil {
		return nil, err
	}
	// Accept both v4 bearer tokens and v3 api keys.
	if res.status == http.StatusUnauthorized {
		fallback, perr := url.Parse(target)
		if perr != nil {
			return nil, fmt.Errorf("parse upstream url: %w", perr)
		}
		q := fallback.Query()
		q.Set("api_key", h.apiKey)
		fallback.RawQuery = q.Encode()
		if res, err = h.doUpstream(ctx, fallback.String(), false); err != nil {
			return nil, err
		}
	}

	if res.status >= 200 && res.status <= 299 {
		if err := h.cache.Set(ctx, target, res.body, ttl); err != nil {
			h.logger.Warn().Err(err).Msg("Edge cache store failed")
		}
	}
	return res, nil
}

func (h *Handler) doUpstream(ctx context.Context, target string, bearer bool) (*upstreamResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	start := time.Now()
	resp, err := h.http.Do(req)
	if err != nil {
		metrics.RecordUpstream("tmdb_proxy", 0, time.Since(start), err)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordUpstream("tmdb_proxy", resp.StatusCode, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	return &upstreamResult{status: resp.StatusCode, body: body}, nil
}

func (h *Handler) buildUpstreamURL(path string, params url.Values) string {
	out := url.Values{}
	for key, values := range params {
		if forwardedParams[key] && len(values) > 0 {
			out.Set(key, values[len(values)-1])
		}
	}
	target := h.upstream + path
	if len(out) > 0 {
		target += "?" + out.Encode()
	}
	return target
}

func (h *Handler) ttlFor(path string) time.Duration {
	if path == searchPath {
		return h.searchTTL
	}
	return h.movieTTL
}

func isAllowedPath(path string) bool {
	return path == searchPath || moviePath.MatchString(path)
}

// corsHeaders sets Vary and, when the request Origin is allowed, echoes it.
// It reports whether the origin was echoed.
func (h *Handler) corsHeaders(w http.ResponseWriter, r *http.Request) bool {
	hdr := w.Header()
	hdr.Set("Vary", "Origin")
	raw := r.Header.Get("Origin")
	if raw == "" || !h.allowed[NormalizeOrigin(raw)] {
		return false
	}
	hdr.Set("Access-Control-Allow-Origin", raw)
	return true
}

func (h *Handler) writeCached(w http.ResponseWriter, r *http.Request, status int, body []byte, ttl time.Duration, cacheState string) {
	h.corsHeaders(w, r)
	hdr := w.Header()
	hdr.Set("Content-Type", "application/json; charset=utf-8")
	hdr.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(ttl/time.Second)))
	hdr.Set("X-Cache", cacheState)
	w.WriteHeader(status)
	_, _ = w.Write(body) //nolint:errcheck // client may have gone away
	metrics.RecordProxyResponse(status, cacheState)
}

func (h *Handler) writeUpstream(w http.ResponseWriter, r *http.Request, res *upstreamResult) {
	h.corsHeaders(w, r)
	hdr := w.Header()
	hdr.Set("Content-Type", "application/json; charset=utf-8")
	hdr.Set("X-Cache", "MISS")
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body) //nolint:errcheck // client may have gone away
	metrics.RecordProxyResponse(res.status, "MISS")
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.corsHeaders(w, r)
	hdr := w.Header()
	hdr.Set("Content-Type", "application/json; charset=utf-8")
	hdr.Set("Cache-Control", "no-store")
	hdr.Set("X-Cache", "MISS")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to write proxy error")
	}
	metrics.RecordProxyResponse(status, "MISS")
}
