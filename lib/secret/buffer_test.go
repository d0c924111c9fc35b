// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import "testing"

func TestNewFromBytesZerosSource(t *testing.T) {
	t.Parallel()

	source := []byte("syt_token_value")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer buffer.Close()

	for index, b := range source {
		if b != 0 {
			t.Fatalf("source[%d] = %d, want 0", index, b)
		}
	}
	if got := buffer.String(); got != "syt_token_value" {
		t.Errorf("String() = %q", got)
	}
	if buffer.Len() != len("syt_token_value") {
		t.Errorf("Len() = %d", buffer.Len())
	}
}

func TestCloseIdempotent(t *testing.T) {
	t.Parallel()

	buffer, err := NewFromBytes([]byte("x"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buffer.String() != "" || buffer.Len() != 0 {
		t.Error("closed buffer should read as empty")
	}
}

func TestEmptySourceRejected(t *testing.T) {
	t.Parallel()

	if _, err := NewFromBytes(nil); err == nil {
		t.Error("expected error for empty source")
	}
}
