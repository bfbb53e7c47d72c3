// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream source metrics (tmdb, reddit, tasteio, letterboxd)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to upstream sources",
		},
		[]string{"source", "outcome"}, // outcome: ok, http_error, error
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream requests including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"source"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of retried upstream requests",
		},
		[]string{"source", "reason"}, // reason: 429, 5xx, timeout, network
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Generation metrics
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_generations_total",
			Help: "Total number of recommendation generations by outcome",
		},
		[]string{"outcome"}, // generated, reused, failed, joined
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of recommendation generations",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_source_errors_total",
			Help: "External source failures recorded on generated results",
		},
		[]string{"source", "kind"}, // kind: total, partial
	)

	// Proxy and edge cache metrics
	ProxyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_requests_total",
			Help: "Total number of reverse proxy responses",
		},
		[]string{"status", "cache"},
	)

	ProxySharedUpstream = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxy_upstream_inflight_shared_total",
			Help: "Proxy requests that joined an in-flight upstream call",
		},
	)

	EdgeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_cache_hits_total",
			Help: "Total number of edge cache hits",
		},
	)

	EdgeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edge_cache_misses_total",
			Help: "Total number of edge cache misses",
		},
	)

	// Storage metrics
	StorageLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storage_lock_wait_seconds",
			Help:    "Time spent queued behind a keyed storage lock",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "API requests currently being served",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of progress stream connections",
		},
	)

	QueuedPageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "letterboxd_queued_page_fetches_total",
			Help: "Background profile page fetches by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	StorageGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_gc_runs_total",
			Help: "Value log garbage collection runs by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordUpstream records one logical upstream request.
func RecordUpstream(source string, status int, duration time.Duration, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case status >= 400:
		outcome = "http_error"
	}
	UpstreamRequests.WithLabelValues(source, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRetry records one retry of an upstream request.
func RecordRetry(source, reason string) {
	UpstreamRetries.WithLabelValues(source, reason).Inc()
}

// RecordGeneration records a finished generation.
func RecordGeneration(outcome string, duration time.Duration) {
	Generations.WithLabelValues(outcome).Inc()
	if outcome == "generated" {
		GenerationDuration.Observe(duration.Seconds())
	}
}

// RecordSourceError records a source failure attached to a result.
func RecordSourceError(source string, total bool) {
	kind := "partial"
	if total {
		kind = "total"
	}
	SourceErrors.WithLabelValues(source, kind).Inc()
}

// RecordProxyResponse records a proxy response by status and cache result.
func RecordProxyResponse(status int, cache string) {
	ProxyRequests.WithLabelValues(strconv.Itoa(status), cache).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight API request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordQueuedPageFetch records one background page fetch.
func RecordQueuedPageFetch(err error) {
	if err != nil {
		QueuedPageFetches.WithLabelValues("error").Inc()
		return
	}
	QueuedPageFetches.WithLabelValues("ok").Inc()
}
