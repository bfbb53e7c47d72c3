// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package letterboxd reads member profiles from Letterboxd and performs the
few writes Reelrank needs.

Components:

  - ParseFilms / ParsePagination: regex readers for profile list pages
  - Scraper: full profile scrape plus the push path for client-scraped pages
  - PageQueue: pending page fetches, drained by a supervised worker
  - Resolver: canonical film slugs via redirects and site search
  - Watchlist: watchlist additions through the member API

Every request goes through the shared upstream client in package sources,
so Letterboxd calls are retried and breaker protected like the other
sources. Profile sections are scraped page one first; remaining pages are
fetched one at a time at the configured page delay.
*/
package letterboxd
