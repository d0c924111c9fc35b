// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "github.com/bureau-foundation/warden/lib/ref"

// Standard Matrix state event types.
const (
	MatrixEventTypePowerLevels    ref.EventType = "m.room.power_levels"
	MatrixEventTypeMember         ref.EventType = "m.room.member"
	MatrixEventTypeName           ref.EventType = "m.room.name"
	MatrixEventTypeTopic          ref.EventType = "m.room.topic"
	MatrixEventTypeAvatar         ref.EventType = "m.room.avatar"
	MatrixEventTypeCanonicalAlias ref.EventType = "m.room.canonical_alias"
	MatrixEventTypeEncryption     ref.EventType = "m.room.encryption"
	MatrixEventTypeTombstone      ref.EventType = "m.room.tombstone"
	MatrixEventTypeCreate         ref.EventType = "m.room.create"

	// MatrixEventTypeSpaceChild is sent in a space, keyed by the child
	// room ID. Empty content (no via) means no relationship.
	MatrixEventTypeSpaceChild ref.EventType = "m.space.child"

	// MatrixEventTypeSpaceParent is sent in a child room, keyed by the
	// space room ID.
	MatrixEventTypeSpaceParent ref.EventType = "m.space.parent"
)

// Timeline event types and message types.
const (
	MatrixEventTypeMessage ref.EventType = "m.room.message"
	MatrixEventTypeSticker ref.EventType = "m.sticker"

	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
	MsgTypeImage  = "m.image"
)

// MatrixEventTypeIgnoredUserList is the account data type holding the
// users whose events the server hides from this account.
const MatrixEventTypeIgnoredUserList ref.EventType = "m.ignored_user_list"

// Membership values of m.room.member.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
	MembershipKnock  = "knock"
)

// Presence states accepted by the presence API.
const (
	PresenceOnline      = "online"
	PresenceOffline     = "offline"
	PresenceUnavailable = "unavailable"
)
