// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import "time"

// Subject is an enrolled participant, keyed by the upstream-assigned id.
// Token holds the access token captured at enrollment; stores may encrypt it.
type Subject struct {
	ExternalID  string    `json:"external_id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	DateOfBirth string    `json:"date_of_birth"`
	Token       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileResponse is the upstream profile body.
type ProfileResponse struct {
	User ProfileUser `json:"user"`
}

// ProfileUser holds the profile fields Sleepsight keeps.
type ProfileUser struct {
	EncodedID   string `json:"encodedId"`
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName,omitempty"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Name returns the full name, falling back to the display name.
func (u ProfileUser) Name() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.DisplayName
}

// ProfileResult is the outcome of a profile ingestion.
type ProfileResult struct {
	Call    string   `json:"call"`
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Subject *Subject `json:"subject,omitempty"`
}
