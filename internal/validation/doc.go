// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

// Package validation validates API request parameters with
// go-playground/validator v10.
//
// A single validator is shared process-wide; it reports fields by their
// json or query tag name and adds two rules, isodate and category:
//
//	type ingestRequest struct {
//	    Begin string `query:"begin" validate:"required,isodate"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
//	}
package validation
