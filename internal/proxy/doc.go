// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package proxy implements the shared TMDb reverse proxy.

Deployments without their own TMDb key point tmdb.proxy_base_url at a
Reelrank instance running with proxy.enabled. The proxy:

  - only answers origins on its allow-list (Origin, X-Reelrank-Origin or
    Referer)
  - only forwards GET /v1/tmdb/search/movie and GET /v1/tmdb/movie/{id}
  - strips every query parameter outside a fixed allow-list
  - caches 2xx bodies in a cache.Edge keyed by upstream URL
  - collapses concurrent identical misses into one upstream call

The upstream credential is tried as a v4 bearer token first and as a v3
api_key query parameter when TMDb answers 401.
*/
package proxy
