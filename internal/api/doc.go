// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package api serves the Reelrank HTTP API on a chi router.

Routes:

	GET  /api/v1/health
	GET  /api/v1/settings
	PUT  /api/v1/settings
	POST /api/v1/watchlist
	GET  /api/v1/users/{username}/recommendations
	POST /api/v1/users/{username}/recommendations/refresh
	GET  /api/v1/users/{username}/generation
	POST /api/v1/users/{username}/scrape
	POST /api/v1/users/{username}/pages
	GET  /api/v1/users/{username}/profile
	GET  /api/v1/users/{username}/health
	GET  /api/v1/users/{username}/progress     (websocket)
	GET  /api/v1/films/{slug}/recommendations?title=&year=
	GET  /api/v1/films/{slug}/canonical?tmdbId=&title=&year=
	GET  /metrics
	GET  /v1/tmdb/*                            (when the proxy is enabled)

Every /api/v1 response uses the models.APIResponse envelope. Errors carry
a machine-readable code:

	NO_SEEDS             409  the profile has no liked or rated films
	TMDB_UNREACHABLE     502  the connectivity probe failed
	TMDB_NOT_CONFIGURED  503  no API key or proxy
	VALIDATION_ERROR     400  a body or path parameter failed validation

Middleware: request ids with logging context, real IP, panic recovery,
go-chi/cors, security headers, Prometheus instrumentation and go-chi/httprate
per-IP budgets that are tighter for generation and scraping.
*/
package api
