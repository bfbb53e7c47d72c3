// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package websocket streams generation progress to browsers.

A Hub owns the registered clients. Each Client is subscribed to one
lowercase username and only receives that user's progress. The generation
coordinator publishes through Hub.PublishProgress, which never blocks: when
the broadcast queue is full the event is dropped, and a client whose own
buffer is full is disconnected.

Messages are JSON frames:

	{"type": "progress", "data": {"username": "alice", "stage": "Ranking results", "percent": 95}}

Clients may send {"type": "ping"} and receive {"type": "pong"}.

The hub runs under the supervisor through RunWithContext. Cancelling the
context closes every client.
*/
package websocket
