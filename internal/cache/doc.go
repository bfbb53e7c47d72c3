// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package cache provides the edge caches behind the TMDb reverse proxy.

Two backends implement Edge:

  - Memory: an in-process LRU bounded by entry count. Each entry carries its
    own expiry and is dropped lazily when read after it has expired.
  - Redis: a shared cache using SET key value EX ttl, for deployments that run
    several proxy instances.

New selects the backend from configuration:

	edge, err := cache.New(ctx, cache.Config{Backend: "redis", RedisAddr: "localhost:6379"})
	if err != nil {
	    return err
	}
	if body, ok, _ := edge.Get(ctx, url); ok {
	    // serve cached body
	}
	_ = edge.Set(ctx, url, body, 10*time.Minute)
*/
package cache
