// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e codedError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e codedError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{name: "nil", err: nil, wantCode: 0},
		{name: "plain", err: errors.New("boom"), wantCode: 1, wantOutput: "error: boom\n"},
		{name: "coded", err: codedError{3}, wantCode: 3},
		{name: "wrapped coded", err: fmt.Errorf("check: %w", codedError{2}), wantCode: 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var output bytes.Buffer
			if code := Report(&output, test.err); code != test.wantCode {
				t.Errorf("code = %d, want %d", code, test.wantCode)
			}
			if output.String() != test.wantOutput {
				t.Errorf("output = %q, want %q", output.String(), test.wantOutput)
			}
		})
	}
}
