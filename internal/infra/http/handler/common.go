// Package handler provides the HTTP handlers for the scan, finding,
// radar and governance endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/codegate/api/pkg/apierror"
	"github.com/codegate/api/pkg/domain/shared"
	"github.com/codegate/api/pkg/logger"
	"github.com/codegate/api/pkg/validator"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleValidationError converts validation errors to API errors and writes response.
func handleValidationError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apiErrors := make([]apierror.ValidationError, len(validationErrors))
		for i, ve := range validationErrors {
			apiErrors[i] = apierror.ValidationError{
				Field:   ve.Field,
				Message: ve.Message,
			}
		}
		apierror.ValidationFailed("Validation failed", apiErrors).WriteJSON(w)
		return
	}
	apierror.BadRequest("Validation error").WriteJSON(w)
}

// handleServiceError maps a service error onto its HTTP equivalent.
// Unrecognized errors are logged and surface as opaque 500s.
func handleServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	apiErr := apierror.FromError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("handler error", "error", err)
	}
	apiErr.WriteJSON(w)
}

// parsePathID parses a UUID path parameter, writing a 400 on failure.
func parsePathID(w http.ResponseWriter, raw, name string) (shared.ID, bool) {
	id, err := shared.IDFromString(raw)
	if err != nil {
		apierror.BadRequest("invalid " + name).WriteJSON(w)
		return shared.ID{}, false
	}
	return id, true
}

// parseQueryInt parses a query parameter as an integer.
// Returns defaultVal if the input is empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
