// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a Matrix client-server API client scoped to what
// a room administration bot needs: room membership and moderation,
// state reads and writes, the room directory, space hierarchy,
// profiles, presence, account data, redaction, and /sync.
//
// A [Client] holds the homeserver URL and HTTP transport. A
// [DirectSession] adds an access token held in a [secret.Buffer]. All
// non-2xx responses surface as [*MatrixError]; use [IsMatrixError] to
// branch on the errcode.
//
// Requests can be paced client-side with a golang.org/x/time/rate
// limiter supplied in [ClientConfig]. The client never retries on its
// own.
package messaging
