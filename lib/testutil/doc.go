// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for warden packages.
//
// The helpers wrap the "wait on a channel, but not forever" pattern so
// that tests which drive goroutines (sync loops, HTTP servers) fail
// with a message instead of hanging the test binary.
package testutil
