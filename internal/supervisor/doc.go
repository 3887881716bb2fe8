// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

/*
Package supervisor runs the long-lived services of cmd/server under a suture
v4 supervisor tree.

	RootSupervisor ("sleepsight")
	├── DataSupervisor ("data-layer")
	│   └── badger-gc (badger backend or persisted credential)
	├── BackgroundSupervisor ("background-layer")
	│   ├── credential-refresher
	│   └── event-consumer
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services restart with suture's backoff; each layer counts failures
independently. Lifecycle events are logged through sutureslog into the
zerolog pipeline (logging.NewSlogLogger).

Service adapters live in the services subpackage.
*/
package supervisor
