// Reelrank - Personalized Film Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

/*
Package main is the entry point for the Reelrank server.

Reelrank builds personalized film recommendations for Letterboxd users. It
ingests a user's films, ratings and watchlist, picks their best-rated films
as seeds, and fans out to TMDb, Reddit and Taste.io for similar titles. The
merged list is scored, filtered against what the user has seen, and cached
per user until the next refresh.

# Application Architecture

The server runs under a Suture v4 supervision tree:

	RootSupervisor ("reelrank")
	├── DataSupervisor ("data-layer")
	│   ├── page-fetch-service (paced Letterboxd page fetches)
	│   └── storage-gc-service (Badger value log GC, badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── progress-hub (generation progress over WebSocket)
	└── APISupervisor ("api-layer")
	    └── http-server (REST API and optional TMDb proxy)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file, environment
 2. Logging: zerolog with JSON or console output
 3. Storage: Badger (or memory) key-value store and schema version
 4. Sources: TMDb client, optional Reddit and Taste.io adapters
 5. Letterboxd: client, slug resolver, scraper, watchlist writer
 6. Generation: single-flight coordinator with progress hub
 7. HTTP: Chi router, middleware stack, optional TMDb proxy
 8. Supervisor Tree: starts every service and restarts failures

# Configuration

Configuration is layered (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8787
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Storage
	STORAGE_BACKEND=badger       # badger or memory
	STORAGE_PATH=/data/reelrank

	# Sources
	TMDB_API_KEY=<key>           # or TMDB_PROXY_BASE_URL for a shared proxy
	REDDIT_ENABLED=true
	TASTEIO_ENABLED=true

	# Shared TMDb proxy
	PROXY_ENABLED=false
	ALLOWED_ORIGIN=https://letterboxd.com
	PROXY_CACHE_BACKEND=memory   # memory or redis

	# Security
	CORS_ORIGINS=https://letterboxd.com
	REELRANK_SECRET_KEY=<secret> # encrypts stored TMDb keys

See internal/config for the full list.

# Graceful Shutdown

SIGINT and SIGTERM cancel the root context. Each service gets the tree's
shutdown timeout to stop; services that miss it are logged by name.
*/
package main
