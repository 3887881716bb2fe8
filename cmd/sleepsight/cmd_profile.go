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

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Fetch the wearer's profile and enroll them as a subject",
		Args:  cobra.NoArgs,
		RunE:  runProfile,
	}
}

func runProfile(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.Orchestrator.IngestProfile(cmd.Context())
	if err != nil {
		return err
	}
	return writeOutput(cmd, res, func(w io.Writer) { printProfile(w, res) })
}

func printProfile(w io.Writer, res *models.ProfileResult) {
	fmt.Fprintln(w, res.Message)
	if s := res.Subject; s != nil {
		fmt.Fprintf(w, "  id:     %s\n", s.ExternalID)
		fmt.Fprintf(w, "  name:   %s\n", s.Name)
		fmt.Fprintf(w, "  age:    %d\n", s.Age)
		fmt.Fprintf(w, "  gender: %s\n", s.Gender)
		if s.DateOfBirth != "" {
			fmt.Fprintf(w, "  born:   %s\n", s.DateOfBirth)
		}
	}
}
