// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit code
// and have already reported themselves.
type exitCoder interface {
	ExitCode() int
}

// ExitCode maps an error from run() to a process exit code. Errors
// carrying an ExitCode method report it; other errors mean 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w unless err carries its own exit code,
// and returns the exit code.
func Report(w io.Writer, err error) int {
	code := ExitCode(err)
	if code != 0 {
		var coder exitCoder
		if !errors.As(err, &coder) {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return code
}

// Exit reports err on stderr and exits with its code. A nil error
// exits 0.
func Exit(err error) {
	os.Exit(Report(os.Stderr, err))
}
