// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package generation coordinates recommendation generation per user.

A Coordinator keeps at most one generation in flight for each lowercase
username. Callers that arrive while one is running join it and receive the
same result. The generation itself runs on a context detached from its
callers with a GenerationTimeout deadline, so a disconnecting client does not
abort work others are waiting on.

Each run:

 1. persists a generation flag (cleared on return)
 2. loads the profile, scraping it first when missing or empty
 3. reuses the cached result when its settings fingerprint still matches
 4. otherwise generates, canonicalizes and caches a new result

Progress is published to a ProgressPublisher, normally the websocket hub.
*/
package generation
