// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package main

import (
	"net/http"

	"github.com/tomtom215/sleepsight/internal/api"
	"github.com/tomtom215/sleepsight/internal/app"
	"github.com/tomtom215/sleepsight/internal/events"
	"github.com/tomtom215/sleepsight/internal/supervisor"
	"github.com/tomtom215/sleepsight/internal/supervisor/services"
)

// initEvents starts the event consumer under the background layer and
// returns the feed it fills.
func initEvents(a *app.App, tree *supervisor.SupervisorTree) (*events.Feed, error) {
	feed := events.NewFeed(events.DefaultFeedSize)
	consumer, err := events.NewConsumer(a.Bus, feed, events.DefaultConsumerConfig())
	if err != nil {
		return nil, err
	}
	tree.AddBackgroundService(services.NewEventConsumerService(consumer))
	return feed, nil
}

func newRouter(a *app.App, feed *events.Feed) http.Handler {
	deps := api.Dependencies{
		Ingester:    a.Orchestrator,
		Credentials: a.Credentials,
		Builder:     a.Client.Builder(),
		Store:       a.Store,
		Feed:        feed,
		Breaker:     a.Fetcher,
	}
	// A nil *Manager must not become a non-nil interface.
	if a.OAuth != nil {
		deps.Authorizer = a.OAuth
	}
	router := api.NewRouter(api.NewHandler(deps), api.NewChiMiddlewareFromConfig(a.Config.Security))
	return router.SetupChi()
}
