// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers for the warden binary:
// reporting an error from run() before or after the structured logger
// exists, and mapping it to an exit code.
package process
