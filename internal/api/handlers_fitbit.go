// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package api

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sleepsight/internal/credential"
	"github.com/tomtom215/sleepsight/internal/fitbit"
	"github.com/tomtom215/sleepsight/internal/logging"
	"github.com/tomtom215/sleepsight/internal/models"
)

// rangeBody is the JSON body of the range ingestion endpoints:
//
//	{"date": {"begin": "2023-01-01", "end": "2023-01-08"}, "subject": "ABC123"}
type rangeBody struct {
	Date struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"date"`
	Subject string `json:"subject,omitempty"`
}

// rangeParams are the validated range parameters, from the body or the query.
type rangeParams struct {
	Begin   string `query:"begin" validate:"required,isodate"`
	End     string `query:"end" validate:"required,isodate"`
	Subject string `query:"subject" validate:"omitempty,max=64,alphanum"`
}

// previewParams are the parameters of the request preview endpoint.
type previewParams struct {
	Category string `query:"category" validate:"required"`
	Date     string `query:"date" validate:"omitempty,isodate"`
}

// requestPreview is a redacted request descriptor.
type requestPreview struct {
	Method string              `json:"method"`
	URL    string              `json:"url"`
	Header map[string][]string `json:"header"`
}

// Profile enrolls the subject of the live credential.
//
// Endpoint: GET /api/fitbit/profile
//
// An already enrolled subject answers 200 with success=false.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.deps.Ingester.IngestProfile(r.Context())
	if err != nil {
		if result != nil && !errors.Is(err, credential.ErrNoCredential) {
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", result.Message, err)
			return
		}
		respondOperationError(w, err)
		return
	}
	respondSuccess(w, result, start)
}

// Sleep ingests sleep logs for a date range.
//
// Endpoints: POST /api/fitbit/sleep, GET /api/fitbit/sleep?begin=&end=
func (h *Handler) Sleep(w http.ResponseWriter, r *http.Request) {
	h.ingestRange(w, r, models.CategorySleep)
}

// Heart ingests intraday heart rate for a date range.
//
// Endpoints: POST /api/fitbit/heart, GET /api/fitbit/heart?begin=&end=
func (h *Handler) Heart(w http.ResponseWriter, r *http.Request) {
	h.ingestRange(w, r, models.CategoryHeart)
}

func (h *Handler) ingestRange(w http.ResponseWriter, r *http.Request, category models.Category) {
	start := time.Now()

	params, apiErr := parseRangeParams(w, r)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	// Already validated as ISO dates.
	begin, _ := models.ParseDate(params.Begin)
	end, _ := models.ParseDate(params.End)

	report, err := h.deps.Ingester.Ingest(r.Context(), category, params.Subject, begin, end)
	if err != nil {
		respondOperationError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("category", string(category)).
		Str("subject_id", report.SubjectID).
		Int("stored", report.Stored).
		Int("failed", report.Failed).
		Msg("Range ingestion finished")

	respondSuccess(w, &models.CallResponse{
		Call:    category.Title(),
		Success: report.Success(),
		Message: report.Summary(),
		Report:  report,
	}, start)
}

// parseRangeParams reads the range from the JSON body of a POST, or of a GET
// sent with Content-Type application/json, falling back to query parameters
// for anything the body leaves empty.
func parseRangeParams(w http.ResponseWriter, r *http.Request) (rangeParams, *models.APIError) {
	var body rangeBody
	if r.Method == http.MethodPost || hasJSONBody(r) {
		if err := decodeJSONBody(w, r, &body); err != nil {
			return rangeParams{}, &models.APIError{Code: "VALIDATION_ERROR", Message: err.Error()}
		}
	}

	q := r.URL.Query()
	params := rangeParams{
		Begin:   firstNonEmpty(body.Date.Begin, q.Get("begin")),
		End:     firstNonEmpty(body.Date.End, q.Get("end")),
		Subject: firstNonEmpty(body.Subject, q.Get("subject")),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		return rangeParams{}, apiErr
	}
	return params, nil
}

func hasJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// RequestPreview shows the upstream request a category and date map to,
// with the bearer token redacted.
//
// Endpoint: GET /api/fitbit/request/{category}?date=YYYY-MM-DD
func (h *Handler) RequestPreview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params := previewParams{
		Category: chi.URLParam(r, "category"),
		Date:     r.URL.Query().Get("date"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	category, err := models.ParseCategory(params.Category)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	var date models.Date
	if params.Date != "" {
		date, _ = models.ParseDate(params.Date)
	}

	cred, err := h.deps.Credentials.Current()
	if err != nil {
		respondOperationError(w, err)
		return
	}

	desc, err := h.deps.Builder.Build(category, date, cred.AccessToken)
	if err != nil {
		if errors.Is(err, fitbit.ErrInvalidRequest) {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		respondOperationError(w, err)
		return
	}

	redacted := desc.Redacted()
	respondSuccess(w, requestPreview{
		Method: redacted.Method,
		URL:    redacted.URL,
		Header: redacted.Header,
	}, start)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
