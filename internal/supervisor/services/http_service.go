// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/sleepsight/internal/logging"
)

// defaultDrainTimeout applies when NewHTTPServerService gets a non-positive
// timeout. Range ingestions run inside requests, so in-flight days finish or
// are reported as canceled within this window.
const defaultDrainTimeout = 10 * time.Second

// HTTPServer is the part of *http.Server the API layer supervises.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService keeps the Sleepsight API listening under the supervisor
// tree. A listener failure is returned so suture restarts it; cancellation
// drains open requests for at most drainTimeout.
type HTTPServerService struct {
	server       HTTPServer
	drainTimeout time.Duration
}

// NewHTTPServerService supervises server, as cmd/server does:
//
//	tree.AddAPIService(services.NewHTTPServerService(apiServer, 10*time.Second))
func NewHTTPServerService(server HTTPServer, drainTimeout time.Duration) *HTTPServerService {
	if drainTimeout <= 0 {
		drainTimeout = defaultDrainTimeout
	}
	return &HTTPServerService{server: server, drainTimeout: drainTimeout}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenDone := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenDone <- err
	}()

	select {
	case err := <-listenDone:
		if err != nil {
			return fmt.Errorf("%s: listen: %w", h, err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := h.drain(); err != nil {
		return err
	}
	<-listenDone
	return ctx.Err()
}

// drain stops accepting connections and waits for open requests.
func (h *HTTPServerService) drain() error {
	start := time.Now()
	drainCtx, cancel := context.WithTimeout(context.Background(), h.drainTimeout)
	defer cancel()

	if err := h.server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("%s: drain: %w", h, err)
	}
	logging.Info().Dur("elapsed", time.Since(start)).Msg("API server drained")
	return nil
}

// String names the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return "http-server"
}
