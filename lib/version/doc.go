// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what build of warden is running.
//
// The release pipeline stamps [GitCommit], [GitDirty], [BuildTime] and
// [Version] with -ldflags -X; unstamped builds report "unknown" and a
// -dev version. [Full] is printed by "warden version", and [UserAgent]
// is sent on every homeserver request so operators can tell bot
// traffic apart in their proxy logs.
package version
