// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/sleepsight/internal/app"
	"github.com/tomtom215/sleepsight/internal/config"
	"github.com/tomtom215/sleepsight/internal/logging"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.LoadWithKoanf()
	}
	return config.LoadFile(path)
}

// openApp loads configuration, routes logs to stderr and wires the stores.
// The caller closes the returned App.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    "console",
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	a, err := app.New(cmd.Context(), cfg, app.Options{})
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing stores")
	}
}

// writeOutput emits data as indented JSON with --json, otherwise calls human.
func writeOutput(cmd *cobra.Command, data any, human func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	human(out)
	return nil
}
