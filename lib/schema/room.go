// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

// MemberContent is the content of an m.room.member state event.
type MemberContent struct {
	Membership  string `json:"membership"`
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Reason      string `json:"reason,omitempty"`
	IsDirect    bool   `json:"is_direct,omitempty"`
}

// RoomNameContent is the content of an m.room.name state event.
type RoomNameContent struct {
	Name string `json:"name"`
}

// RoomTopicContent is the content of an m.room.topic state event.
type RoomTopicContent struct {
	Topic string `json:"topic"`
}

// CanonicalAliasContent is the content of an m.room.canonical_alias
// state event.
type CanonicalAliasContent struct {
	Alias      string   `json:"alias,omitempty"`
	AltAliases []string `json:"alt_aliases,omitempty"`
}

// EncryptionContent is the content of an m.room.encryption state event.
// Presence of the event means the room is encrypted.
type EncryptionContent struct {
	Algorithm string `json:"algorithm"`
}

// IgnoredUserListContent is the m.ignored_user_list account data. The
// value for each ignored user is an empty object.
type IgnoredUserListContent struct {
	IgnoredUsers map[string]struct{} `json:"ignored_users"`
}
