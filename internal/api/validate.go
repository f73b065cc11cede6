// ChurnGuard - Subscription Churn Risk Analytics
// Copyright 2026 Ty Beagley (tybeagley-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tybeagley-dev/churnguard-2.3-sub001

package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tybeagley-dev/churnguard-2.3-sub001/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the process-wide validator. validator.Validate caches
// struct metadata, so a single shared instance is both safe and fast.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest validates a request struct and converts any failures into
// the API's VALIDATION_ERROR shape. Returns nil when the struct is valid.
func validateRequest(v interface{}) *models.APIError {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		}
	}

	if len(fieldErrs) == 1 {
		fe := fieldErrs[0]
		return &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: translateFieldError(fe),
			Details: map[string]interface{}{
				"field": fe.Field(),
				"tag":   fe.Tag(),
			},
		}
	}

	messages := make([]string, len(fieldErrs))
	fields := make([]map[string]interface{}, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = translateFieldError(fe)
		fields[i] = map[string]interface{}{
			"field": fe.Field(),
			"tag":   fe.Tag(),
		}
	}
	return &models.APIError{
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(messages, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// translateFieldError renders one validator failure as a human-readable
// message.
func translateFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
