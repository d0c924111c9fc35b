// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// MatrixError represents a structured error response from the Matrix
// homeserver. Callers can use errors.As to extract it:
//
//	var matrixErr *MatrixError
//	if errors.As(err, &matrixErr) {
//	    if matrixErr.Code == ErrCodeNotFound { ... }
//	}
type MatrixError struct {
	// Code is the Matrix error code (e.g., "M_FORBIDDEN"). Empty when
	// the response body was not a Matrix error.
	Code string `json:"errcode"`
	// Message is the human-readable error description from the server.
	Message string `json:"error"`
	// RetryAfterMillis is set on M_LIMIT_EXCEEDED responses.
	RetryAfterMillis int64 `json:"retry_after_ms,omitempty"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("matrix: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// RetryAfter returns the server's requested backoff, or zero.
func (e *MatrixError) RetryAfter() time.Duration {
	return time.Duration(e.RetryAfterMillis) * time.Millisecond
}

// Standard Matrix error codes.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnrecognized  = "M_UNRECOGNIZED"
	ErrCodeUnknown       = "M_UNKNOWN"
	ErrCodeInvalidParam  = "M_INVALID_PARAM"
	ErrCodeMissingParam  = "M_MISSING_PARAM"
	ErrCodeRoomInUse     = "M_ROOM_IN_USE"
	ErrCodeBadAlias      = "M_BAD_ALIAS"
	ErrCodeUnsupported   = "M_UNSUPPORTED_ROOM_VERSION"
)

// IsMatrixError checks whether err is a *MatrixError with the given
// error code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is an M_NOT_FOUND response, or a 404
// with no errcode at all. A 404 carrying another errcode, such as
// M_UNRECOGNIZED from an endpoint the server does not implement, is not
// a missing resource.
func IsNotFound(err error) bool {
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		return false
	}
	if matrixErr.Code == ErrCodeNotFound {
		return true
	}
	return matrixErr.Code == "" && matrixErr.StatusCode == http.StatusNotFound
}
