// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one non-nil instance")
	}
}

type rangeRequest struct {
	Category string `json:"category" validate:"required,category"`
	Begin    string `json:"begin" validate:"required,isodate"`
	End      string `json:"end" validate:"required,isodate"`
	Subject  string `json:"subject,omitempty" validate:"omitempty,max=64"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      rangeRequest
		wantFields []string
	}{
		{
			name:  "valid",
			input: rangeRequest{Category: "sleep", Begin: "2023-01-01", End: "2023-01-08"},
		},
		{
			name:  "category case insensitive",
			input: rangeRequest{Category: "HEART", Begin: "2023-01-01", End: "2023-01-02"},
		},
		{
			name:       "missing dates",
			input:      rangeRequest{Category: "sleep"},
			wantFields: []string{"begin", "end"},
		},
		{
			name:       "bad date format",
			input:      rangeRequest{Category: "sleep", Begin: "01/01/2023", End: "2023-01-02"},
			wantFields: []string{"begin"},
		},
		{
			name:       "non-ingestable category",
			input:      rangeRequest{Category: "profile", Begin: "2023-01-01", End: "2023-01-02"},
			wantFields: []string{"category"},
		},
		{
			name:       "subject too long",
			input:      rangeRequest{Category: "sleep", Begin: "2023-01-01", End: "2023-01-02", Subject: strings.Repeat("x", 65)},
			wantFields: []string{"subject"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want errors on %v", tt.wantFields)
			}
			var got []string
			for _, fe := range err.Errors() {
				got = append(got, fe.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("failed fields = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&rangeRequest{Category: "sleep", Begin: "bad", End: "2023-01-02"})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "begin must be a date in YYYY-MM-DD format" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "begin" {
		t.Errorf("Details = %v", apiErr.Details)
	}

	multi := ValidateStruct(&rangeRequest{}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Errorf("Details[fields] = %#v", multi.Details["fields"])
	}
	if !strings.Contains(multi.Message, "category is required") {
		t.Errorf("Message = %q", multi.Message)
	}
}
