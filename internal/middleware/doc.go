// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package middleware provides chi-compatible HTTP middleware shared by the
API router.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: counts requests and observes latency per chi route
    pattern

Both have the func(http.Handler) http.Handler shape and are installed with
r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/health", h.Health)
	})

PrometheusMetrics preserves http.Hijacker so the progress websocket can
upgrade through it.
*/
package middleware
