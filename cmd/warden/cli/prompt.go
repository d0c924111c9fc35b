// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bureau-foundation/warden/lib/secret"
)

// ReadSecret prompts on stderr and reads one line from input without
// echo when input is a terminal. Piped input is read as a plain line
// so scripts can supply the value. The caller must Close the buffer.
func ReadSecret(prompt string, input *os.File) (*secret.Buffer, error) {
	var raw []byte
	if term.IsTerminal(int(input.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		line, err := term.ReadPassword(int(input.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", strings.TrimSpace(strings.TrimSuffix(prompt, ": ")), err)
		}
		raw = line
	} else {
		line, err := readLine(input)
		if err != nil {
			return nil, err
		}
		raw = line
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return secret.NewFromBytes(raw)
}

// readLine reads up to the first newline, dropping a trailing "\r".
func readLine(input io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(input).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}
