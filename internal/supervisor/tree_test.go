// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// mockService runs until canceled, optionally failing its first runs.
type mockService struct {
	name     string
	starts   atomic.Int32
	failures int32
}

func (m *mockService) Serve(ctx context.Context) error {
	if m.starts.Add(1) <= m.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor is nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults", tree.config)
	}
}

func TestSupervisorTree_Lifecycle(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	data := &mockService{name: "mock-data"}
	background := &mockService{name: "mock-background", failures: 2}
	api := &mockService{name: "mock-api"}
	tree.AddDataService(data)
	tree.AddBackgroundService(background)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for background.starts.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}

	if background.starts.Load() < 3 {
		t.Errorf("failing service started %d times, want restarts", background.starts.Load())
	}
	if data.starts.Load() != 1 || api.starts.Load() != 1 {
		t.Errorf("healthy services restarted: data=%d api=%d", data.starts.Load(), api.starts.Load())
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}
