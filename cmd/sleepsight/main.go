// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Command sleepsight runs one-off ingestions against the configured store
// using the persisted credential, without starting the HTTP server.
//
//	sleepsight profile
//	sleepsight ingest sleep --begin 2026-01-01 --end 2026-01-08
//	sleepsight request heart --date 2026-01-01
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sleepsight",
		Short:        "Sleepsight -- wearable sleep and heart-rate ingestion",
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Path to a YAML config file (default: CONFIG_PATH, then config.yaml)")
	root.PersistentFlags().Bool("json", false, "Output machine-readable JSON")

	root.AddCommand(ingestCmd())
	root.AddCommand(profileCmd())
	root.AddCommand(requestCmd())
	return root
}
