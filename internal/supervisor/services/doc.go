// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package services adapts Reelrank's long-running components to suture's
Serve(ctx) error contract.

# Available Services

HTTPServerService wraps *http.Server. ListenAndServe runs in a goroutine;
on cancellation Shutdown gets a fresh deadline so in-flight requests can
drain.

ProgressHubService runs the websocket hub that streams generation
progress. The hub closes every client when its context ends.

PageFetchService drains the Letterboxd page queue one job at a time,
pausing letterboxd.DefaultPageDelay between fetches. Failed jobs are
logged and dropped.

StorageGCService runs Badger value log GC on an interval. It is only
added when the Badger backend is in use.

# Restart Semantics

Every service returns ctx.Err() on shutdown and a wrapped error on
failure, which suture treats as a crash and restarts with backoff.
*/
package services
