// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package main is the entry point for the Sleepsight HTTP server.

Sleepsight pulls daily sleep and heart-rate series for one authorized
wearer from the Fitbit Web API and stores each day exactly once.

# Application Architecture

	RootSupervisor ("sleepsight")
	├── DataSupervisor ("data-layer")
	│   └── Badger value log GC (one per Badger store)
	├── BackgroundSupervisor ("background-layer")
	│   ├── Credential refresher (when OAuth is configured)
	│   └── Event consumer (Watermill gochannel)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Record store: DuckDB, PostgreSQL or Badger
 4. Credential: restored from the encrypted Badger store when persisted
 5. Upstream client: rate limited, retried, behind a circuit breaker
 6. Orchestrator: bounded-concurrency range ingestion
 7. Supervisor tree and HTTP server

# Configuration

	export FITBIT_CLIENT_ID=...
	export FITBIT_CLIENT_SECRET=...
	export FITBIT_REDIRECT_URL=http://localhost:3000/auth/fitbit/callback
	export CREDENTIAL_ENCRYPTION_KEY=$(openssl rand -hex 32)
	./server

Then open /auth/fitbit in a browser to authorize the wearer.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests for up to 10s, the background services stop, and the
stores are closed.
*/
package main
