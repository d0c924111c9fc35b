// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP body reads for JSON API
// responses. Every read of a homeserver response goes through
// ReadResponse so that a misbehaving server cannot exhaust memory.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds a JSON API response body: 32 MB. A /sync
// response for a bot in a few hundred rooms is well under this.
const MaxResponseSize int64 = 32 << 20

// maxErrorBody bounds the excerpt of a non-JSON error body included in
// an error message.
const maxErrorBody = 512

// ErrResponseTooLarge is returned when a body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// ReadResponse reads a response body up to MaxResponseSize bytes and
// fails with ErrResponseTooLarge when the body is longer.
func ReadResponse(body io.Reader) ([]byte, error) {
	return ReadLimited(body, MaxResponseSize)
}

// ReadLimited reads at most limit bytes from body.
func ReadLimited(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// ErrorExcerpt returns a short printable prefix of an error body for
// diagnostics.
func ErrorExcerpt(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "..."
}
