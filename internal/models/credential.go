// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import "time"

// Credential is the process-wide OAuth2 bearer credential.
// A zero Expiry means the expiry is unknown.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	SubjectID    string    `json:"subject_id"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ExpiresWithin reports whether the credential expires within d of now.
// Credentials with unknown expiry never report true.
func (c *Credential) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(d).Before(c.Expiry)
}
