// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tomtom215/sleepsight/internal/models"
)

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <category>",
		Short: "Print the upstream request for a category without sending it",
		Long: `Request builds the upstream call for a category and prints it with the
bearer token masked. Dated categories (sleep, heart, activities, food) need
--date.`,
		Args: cobra.ExactArgs(1),
		RunE: runRequest,
	}
	cmd.Flags().String("date", "", "Day to request, YYYY-MM-DD")
	return cmd
}

func runRequest(cmd *cobra.Command, args []string) error {
	category, err := models.ParseCategory(args[0])
	if err != nil {
		return err
	}
	var date models.Date
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		if date, err = models.ParseDate(raw); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	cred, err := a.Credentials.Current()
	if err != nil {
		return err
	}
	desc, err := a.Client.Builder().Build(category, date, cred.AccessToken)
	if err != nil {
		return err
	}
	redacted := desc.Redacted()

	return writeOutput(cmd, redacted, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s\n", redacted.Method, redacted.URL)
		keys := make([]string, 0, len(redacted.Header))
		for k := range redacted.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, redacted.Header.Get(k))
		}
	})
}
