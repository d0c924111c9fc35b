// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"M_NOT_FOUND", &MatrixError{Code: ErrCodeNotFound, StatusCode: http.StatusNotFound}, true},
		{"wrapped M_NOT_FOUND", fmt.Errorf("reading state: %w", &MatrixError{Code: ErrCodeNotFound, StatusCode: http.StatusNotFound}), true},
		{"bare 404", &MatrixError{StatusCode: http.StatusNotFound}, true},
		{"unrecognized endpoint", &MatrixError{Code: ErrCodeUnrecognized, StatusCode: http.StatusNotFound}, false},
		{"forbidden", &MatrixError{Code: ErrCodeForbidden, StatusCode: http.StatusForbidden}, false},
		{"bare 500", &MatrixError{StatusCode: http.StatusInternalServerError}, false},
		{"not a matrix error", errors.New("connection refused"), false},
		{"nil", nil, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNotFound(test.err); got != test.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", test.err, got, test.want)
			}
		})
	}
}

func TestMatrixErrorWithoutErrcode(t *testing.T) {
	t.Parallel()

	err := &MatrixError{StatusCode: http.StatusBadGateway, Message: "upstream down"}
	if got := err.Error(); got != "matrix: HTTP 502: upstream down" {
		t.Errorf("Error() = %q", got)
	}
	err = &MatrixError{Code: ErrCodeForbidden, StatusCode: http.StatusForbidden, Message: "no"}
	if got := err.Error(); got != "matrix: M_FORBIDDEN (403): no" {
		t.Errorf("Error() = %q", got)
	}
}
