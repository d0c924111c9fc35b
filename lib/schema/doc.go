// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the Matrix event types and content structures
// the warden reads and writes: power levels, space parent/child links,
// membership, profile, room summary state, and the ignored-user list.
//
// [PowerLevels] carries the authorization rules used by the space link
// protocol and the promote/demote commands. [SpaceChildContent] and
// [SpaceParentContent] are the two halves of a space relationship.
//
// This package depends only on lib/ref.
package schema
