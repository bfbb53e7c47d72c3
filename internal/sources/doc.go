// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package sources holds the request plumbing shared by the upstream adapters
in its subpackages (tmdb, reddit, tasteio) and by the Letterboxd scraper.

A Client admits each request through a token bucket, runs it through a
circuit breaker and sends it with the retrying fetch client:

	limiter.Acquire -> breaker.Execute -> fetch.Client.Do -> read body

Server errors (5xx, 429 after retries) and transport failures count
against the breaker. Other statuses are returned to the adapter, which
decides what a 404 or 401 means for its source. When the breaker is open,
requests fail immediately with gobreaker.ErrOpenState and the calling
adapter reports a source failure.
*/
package sources
