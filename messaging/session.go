// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
)

// Session is the authenticated Matrix API surface used by the command
// layer and the sync loop. *DirectSession implements it; tests may
// substitute narrower fakes for the pieces they exercise.
type Session interface {
	UserID() ref.UserID
	WhoAmI(ctx context.Context) (ref.UserID, error)

	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)
	LeaveRoom(ctx context.Context, roomID ref.RoomID) error
	ForgetRoom(ctx context.Context, roomID ref.RoomID) error
	KnockRoom(ctx context.Context, roomIDOrAlias, reason string) (ref.RoomID, error)
	UpgradeRoom(ctx context.Context, roomID ref.RoomID, newVersion string) (ref.RoomID, error)
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error
	KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error
	BanUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error
	UnbanUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)
	GetRoomMember(ctx context.Context, roomID ref.RoomID, userID ref.UserID) (*schema.MemberContent, error)

	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error)
	SendEventWithTransaction(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, transactionID string, content any) (ref.EventID, error)
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)
	GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error)
	GetEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) (*Event, error)
	RoomMessages(ctx context.Context, roomID ref.RoomID, options RoomMessagesOptions) (*RoomMessagesResponse, error)
	Redact(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error)
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)

	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (*ResolveAliasResponse, error)
	CreateAlias(ctx context.Context, alias ref.RoomAlias, roomID ref.RoomID) error
	DeleteAlias(ctx context.Context, alias ref.RoomAlias) error
	PublicRooms(ctx context.Context, options PublicRoomsOptions) (*PublicRoomsResponse, error)
	RoomHierarchy(ctx context.Context, roomID ref.RoomID, options HierarchyOptions) (*HierarchyResponse, error)
	SearchUserDirectory(ctx context.Context, term string, limit int) (*UserDirectoryResponse, error)

	GetProfile(ctx context.Context, userID ref.UserID) (*Profile, error)
	SetDisplayName(ctx context.Context, displayName string) error
	SetAvatarURL(ctx context.Context, avatarURL string) error
	GetPresence(ctx context.Context, userID ref.UserID) (*Presence, error)
	SetPresence(ctx context.Context, presence Presence) error
	GetAccountData(ctx context.Context, eventType ref.EventType) (json.RawMessage, error)
	SetAccountData(ctx context.Context, eventType ref.EventType, content any) error
}

var _ Session = (*DirectSession)(nil)
