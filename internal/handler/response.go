// Package handler contains the HTTP request handlers.
//
// Handlers parse the request, call a service, and write the response. They
// hold no business rules: ownership, uniqueness and credential checks live in
// internal/service and the stores.
package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape, whatever the status:
//
//	{"errors": ["title must be at least 3 characters", "title is required"]}
//
// The frontend always renders errors[], so validation failures with several
// field messages and single-message failures look the same to it.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/reactgram/internal/apperror"
)

// ErrorResponse is the standard error body returned by all API endpoints.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// MessageResponse is used by endpoints whose only payload is a confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE writing the body. Once Encode writes,
// the headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status.
//
//	ErrBadRequest                                → 400
//	ErrUnauthenticated                           → 401
//	ErrForbidden                                 → 403
//	ErrNotFound                                  → 404
//	ErrValidation, ErrConflict, ErrInvalidCredentials → 422
//	anything else                                → 500
//
// 422 for bad credentials (not 401) matches what existing clients expect.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// errors.Is / errors.As walk the whole chain, so a service's
// fmt.Errorf("service/photo: deleting %s: %w", id, apperror.Forbidden(...))
// still lands on 403 with the Forbidden message.
//
// Unknown errors become a generic 500. The raw error may contain SQL,
// file paths or bucket names, so it is logged and never returned.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)

	var appErr *apperror.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		writeJSON(w, status, ErrorResponse{Errors: appErr.Messages()})
		return
	}

	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Errors: []string{"internal server error"},
	})
}
