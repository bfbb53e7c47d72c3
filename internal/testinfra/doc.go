// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package testinfra starts containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Redis
//
// NewRedisContainer starts a disposable Redis for the proxy edge cache:
//
//	func TestEdgeCache(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//
//	    edge, err := cache.New(ctx, cache.Config{Backend: "redis", RedisAddr: rc.Addr})
//	    // ...
//	}
//
// Tests skip when Docker is unavailable. The first run pulls the image.
package testinfra
