// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/sleepsight/internal/app"
	"github.com/tomtom215/sleepsight/internal/config"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/supervisor"
	"github.com/tomtom215/sleepsight/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("backend", cfg.Database.Backend).
		Bool("oauth", cfg.OAuthEnabled()).
		Bool("persist_credential", cfg.Credential.Persist).
		Bool("archive", cfg.Archive.Enabled).
		Msg("Starting Sleepsight with supervisor tree")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg, app.Options{Events: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing stores")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}

	for _, gc := range a.GarbageCollectors() {
		tree.AddDataService(services.NewStoreGCService(gc))
	}
	if refresher := a.Refresher(); refresher != nil {
		tree.AddBackgroundService(services.NewCredentialRefresherService(refresher))
		logging.Info().Dur("interval", cfg.Credential.RefreshInterval).Msg("Credential refresher enabled")
	}

	feed, err := initEvents(a, tree)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           newRouter(a, feed),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().Str("address", server.Addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
