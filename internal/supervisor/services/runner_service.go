// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package services

import (
	"context"
	"errors"
	"fmt"
)

// ContextRunner is a component that runs until its context is canceled.
//
// Satisfied by:
//   - *credential.Refresher
//   - *events.Consumer
//   - *kvstore.GarbageCollector
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service.
//
// Cancellation errors are passed through unchanged so suture treats them as
// a clean stop; anything else is wrapped with the service name and makes
// suture restart the runner with backoff.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewCredentialRefresherService supervises the OAuth credential refresher.
func NewCredentialRefresherService(runner ContextRunner) *RunnerService {
	return NewRunnerService("credential-refresher", runner)
}

// NewEventConsumerService supervises the event consumer.
func NewEventConsumerService(runner ContextRunner) *RunnerService {
	return NewRunnerService("event-consumer", runner)
}

// NewStoreGCService supervises Badger value log garbage collection.
func NewStoreGCService(runner ContextRunner) *RunnerService {
	return NewRunnerService("badger-gc", runner)
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.RunWithContext(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s failed: %w", s.name, err)
}

// String identifies the service in supervisor logs.
func (s *RunnerService) String() string {
	return s.name
}
