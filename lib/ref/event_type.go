// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventType identifies a Matrix state, timeline, or account data event
// type (m.room.*, m.space.*). Constants live in lib/schema.
//
// EventType is a named string rather than a struct wrapper: event types
// are opaque and need no validation. The type keeps an event type from
// being passed where a state key is expected.
type EventType string

// String returns the event type string (e.g., "m.space.child").
func (t EventType) String() string { return string(t) }
