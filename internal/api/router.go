// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/reelrank/internal/middleware"
	"github.com/tomtom215/reelrank/internal/proxy"
)

// Router assembles the HTTP surface: the API, metrics and, when set, the
// TMDb reverse proxy.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	proxy         http.Handler
}

// NewRouter creates a Router. tmdbProxy may be nil.
func NewRouter(handler *Handler, mw *ChiMiddleware, tmdbProxy http.Handler) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, proxy: tmdbProxy}
}

// Setup builds the chi router.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, CodeBadRequest, "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	// The proxy answers its own CORS preflights and method errors.
	if router.proxy != nil {
		r.Handle(proxy.PathPrefix+"/*", router.proxy)
	}

	h := router.handler
	mw := router.chiMiddleware
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.CORS())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(mw.RateLimitHealth()).Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Get("/settings", h.GetSettings)
			r.With(mw.RateLimitWrite()).Put("/settings", h.UpdateSettings)
			r.With(mw.RateLimitWrite()).Post("/watchlist", h.AddToWatchlist)

			r.Route("/users/{username}", func(r chi.Router) {
				r.Get("/recommendations", h.GetRecommendations)
				r.With(mw.RateLimitGenerate()).Post("/recommendations/refresh", h.RefreshRecommendations)
				r.Get("/generation", h.GetGenerationStatus)
				r.With(mw.RateLimitScrape()).Post("/scrape", h.ScrapeProfile)
				r.With(mw.RateLimitWrite()).Post("/pages", h.IngestPage)
				r.Get("/profile", h.GetProfile)
				r.Get("/health", h.UserHealth)
				r.Get("/progress", h.ProgressStream)
			})

			r.Route("/films/{slug}", func(r chi.Router) {
				r.With(mw.RateLimitGenerate()).Get("/recommendations", h.GetFilmRecommendations)
				r.Get("/canonical", h.GetCanonicalURL)
			})
		})
	})

	return r
}
