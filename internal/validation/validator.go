// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/sleepsight/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// RequestValidationError collects every failed rule of a request.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the individual field errors.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i, err := range ve.errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

// ToAPIError converts the errors to the VALIDATION_ERROR response shape.
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	apiErr := &models.APIError{Code: "VALIDATION_ERROR", Message: ve.Error()}
	if len(ve.errors) == 1 {
		apiErr.Details = map[string]interface{}{
			"field": ve.errors[0].Field,
			"tag":   ve.errors[0].Tag,
		}
		return apiErr
	}
	fields := make([]map[string]interface{}, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   err.Field,
			"tag":     err.Tag,
			"message": err.Message,
		}
	}
	apiErr.Details = map[string]interface{}{"fields": fields}
	return apiErr
}

// GetValidator returns the shared validator with the custom rules registered:
//
//	isodate   "YYYY-MM-DD"
//	category  a category that can be ingested (sleep, heart)
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON/query names rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "query"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := models.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			c, err := models.ParseCategory(fl.Field().String())
			return err == nil && c.Ingestable()
		})
	})
	return validate
}

// ValidateStruct validates s, returning nil or a *RequestValidationError.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{errors: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"isodate":  "%s must be a date in YYYY-MM-DD format",
	"category": "%s must be sleep or heart",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"max":   "%s must be at most %s characters",
	"min":   "%s must be at least %s characters",
}

func translateError(fe validator.FieldError) string {
	if template, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	if template, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
