// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes the symbolic error codes returned in the error
// envelope and the table that maps service errors onto them. Clients branch on
// `code`; `message` is for humans.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, unauthorized, conflict, ...) mirror HTTP
//     status semantics; domain codes (code_not_found, self_request, ...) name
//     the business rule that failed.
//   - Any error not in the table is a 500 internal_error; its text is logged,
//     never returned.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate_request",
//	  "message": "request already sent for this code"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-chatcode-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidFormat      = "invalid_format"
	ErrCodeCodeNotFound       = "code_not_found"
	ErrCodeSelfRequest        = "self_request"
	ErrCodeDuplicateRequest   = "duplicate_request"
	ErrCodeAlreadyResolved    = "already_resolved"
	ErrCodeExhausted          = "code_generation_exhausted"
	ErrCodeInvalidCredentials = "invalid_credentials"
)

// errorMapping binds a service error to its HTTP status and envelope code.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{services.ErrInvalidFormat, http.StatusBadRequest, ErrCodeInvalidFormat},
	{services.ErrInvalidValidity, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidAction, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidProfile, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeInvalidCredentials},
	{services.ErrUnauthorized, http.StatusForbidden, ErrCodeUnauthorized},
	{services.ErrCodeNotFound, http.StatusNotFound, ErrCodeCodeNotFound},
	{services.ErrRequestNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrSelfRequest, http.StatusConflict, ErrCodeSelfRequest},
	{services.ErrDuplicateRequest, http.StatusConflict, ErrCodeDuplicateRequest},
	{services.ErrAlreadyResolved, http.StatusConflict, ErrCodeAlreadyResolved},
	{services.ErrEmailTaken, http.StatusConflict, ErrCodeConflict},
	{services.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, ErrCodeExhausted},
}

// statusFor resolves err against errorTable. ok is false for unmapped errors.
func statusFor(err error) (status int, code string, ok bool) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal, false
}

// failErr writes the envelope for a service error. Unmapped errors become a
// generic 500 and are logged with their cause.
func failErr(c *gin.Context, err error) {
	status, code, known := statusFor(err)
	if !known {
		_ = c.Error(err)
		fail(c, status, code, "internal server error")
		return
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	fail(c, status, code, err.Error())
}
