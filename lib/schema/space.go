// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// SpaceChildContent is the content of an m.space.child state event,
// sent in the space with the child room ID as state key. A relationship
// exists only while Via is non-empty; unlinking writes empty content.
type SpaceChildContent struct {
	Via       []string `json:"via,omitempty"`
	Suggested bool     `json:"suggested,omitempty"`
	Order     string   `json:"order,omitempty"`
}

// Linked reports whether the content describes a live relationship.
func (content SpaceChildContent) Linked() bool { return len(content.Via) > 0 }

// SpaceParentContent is the content of an m.space.parent state event,
// sent in the child room with the space room ID as state key.
type SpaceParentContent struct {
	Via       []string `json:"via,omitempty"`
	Canonical bool     `json:"canonical,omitempty"`
}
