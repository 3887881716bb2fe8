// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/sleepsight/internal/models"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <sleep|heart>",
		Short: "Ingest every day in [begin, end) for a category",
		Long: `Ingest fetches one upstream call per day in the half-open range
[begin, end) and stores each day once. Days already stored are reported as
duplicates, so re-running a range only fills the gaps.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
	cmd.Flags().String("begin", "", "First day, YYYY-MM-DD (required)")
	cmd.Flags().String("end", "", "Day after the last day, YYYY-MM-DD (required)")
	cmd.Flags().String("subject", "", "Subject id to record against (default: the credential's)")
	_ = cmd.MarkFlagRequired("begin")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// ingestArgs parses and checks the command line before any store is opened.
func ingestArgs(cmd *cobra.Command, args []string) (models.Category, models.Date, models.Date, error) {
	category, err := models.ParseCategory(args[0])
	if err != nil {
		return "", models.Date{}, models.Date{}, err
	}
	if !category.Ingestable() {
		return "", models.Date{}, models.Date{}, fmt.Errorf("category %q cannot be ingested by date range", category)
	}
	beginFlag, _ := cmd.Flags().GetString("begin")
	endFlag, _ := cmd.Flags().GetString("end")
	begin, err := models.ParseDate(beginFlag)
	if err != nil {
		return "", models.Date{}, models.Date{}, fmt.Errorf("--begin: %w", err)
	}
	end, err := models.ParseDate(endFlag)
	if err != nil {
		return "", models.Date{}, models.Date{}, fmt.Errorf("--end: %w", err)
	}
	return category, begin, end, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	category, begin, end, err := ingestArgs(cmd, args)
	if err != nil {
		return err
	}
	subject, _ := cmd.Flags().GetString("subject")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	report, err := a.Orchestrator.Ingest(cmd.Context(), category, subject, begin, end)
	if report == nil {
		return err
	}
	if outErr := writeOutput(cmd, report, func(w io.Writer) { printReport(w, report) }); outErr != nil {
		return outErr
	}
	if err != nil {
		return err
	}
	if !report.Success() {
		return fmt.Errorf("%d of %d days failed; run the same range again to retry them", report.Failed, len(report.Days))
	}
	return nil
}

func printReport(w io.Writer, r *models.IngestionReport) {
	fmt.Fprintln(w, r.Summary())
	for _, d := range r.Days {
		if d.Outcome != models.OutcomeFailed {
			continue
		}
		if d.StatusCode != 0 {
			fmt.Fprintf(w, "  %s  %s (%d): %s\n", d.Date, d.Kind, d.StatusCode, d.Error)
		} else {
			fmt.Fprintf(w, "  %s  %s: %s\n", d.Date, d.Kind, d.Error)
		}
	}
	if r.NeedsReauth {
		fmt.Fprintln(w, "The credential was rejected; authorize again through the server at /auth/fitbit.")
	}
}
