// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package supervisor runs Reelrank's long-lived services under a suture v4
supervisor tree.

# Layout

	reelrank (root)
	├── data-layer
	│   ├── page-fetch-service   drains the Letterboxd page queue
	│   └── storage-gc-service   Badger value log GC (badger backend only)
	├── messaging-layer
	│   └── progress-hub         generation progress websocket hub
	└── api-layer
	    └── http-server          API, metrics and TMDb proxy

A crash in one layer is restarted without touching the others, so a
failing page fetcher never takes the API down.

# Usage

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewPageFetchService(scraper.Queue(), scraper, services.PageFetchServiceConfig{}, logger))
	tree.AddMessagingService(services.NewProgressHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

Events (restarts, backoff, timeouts) are logged through sutureslog.
*/
package supervisor
