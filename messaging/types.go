// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/warden/lib/ref"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string          `json:"type"`
	Identifier               LoginIdentifier `json:"identifier"`
	Password                 string          `json:"password"`
	DeviceID                 string          `json:"device_id,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
}

// LoginIdentifier identifies the account in a LoginRequest.
type LoginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name            string         `json:"name,omitempty"`
	Topic           string         `json:"topic,omitempty"`
	Alias           string         `json:"room_alias_name,omitempty"` // local alias without # or :server
	RoomVersion     string         `json:"room_version,omitempty"`
	Visibility      string         `json:"visibility,omitempty"` // "public" or "private"
	Preset          string         `json:"preset,omitempty"`     // "private_chat", "public_chat", "trusted_private_chat"
	Invite          []string       `json:"invite,omitempty"`
	IsDirect        bool           `json:"is_direct,omitempty"`
	CreationContent map[string]any `json:"creation_content,omitempty"`
	InitialState    []StateEvent   `json:"initial_state,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// StateEvent represents a state event for room creation.
type StateEvent struct {
	Type     string `json:"type"`
	StateKey string `json:"state_key"`
	Content  any    `json:"content"`
}

// MessageContent is the content body of an m.room.message event.
type MessageContent struct {
	MsgType       string     `json:"msgtype"`
	Body          string     `json:"body"`
	Format        string     `json:"format,omitempty"`
	FormattedBody string     `json:"formatted_body,omitempty"`
	URL           string     `json:"url,omitempty"`
	Mentions      *Mentions  `json:"m.mentions,omitempty"`
	RelatesTo     *RelatesTo `json:"m.relates_to,omitempty"`
}

// Mentions identifies users referenced in a message.
type Mentions struct {
	UserIDs []string `json:"user_ids,omitempty"`
}

// RelatesTo expresses relationships between events. A plain reply has
// only InReplyTo set.
type RelatesTo struct {
	RelType   string     `json:"rel_type,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	InReplyTo *InReplyTo `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// ContentString returns a string field of the event content, or "".
func (e *Event) ContentString(key string) string {
	value, _ := e.Content[key].(string)
	return value
}

// Redacted reports whether the event has already been redacted.
func (e *Event) Redacted() bool {
	return e.Unsigned != nil && e.Unsigned.RedactedBecause != nil
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age             int64          `json:"age,omitempty"`
	TransactionID   string         `json:"transaction_id,omitempty"`
	RedactedBecause map[string]any `json:"redacted_because,omitempty"`
}

// RoomMessagesOptions controls pagination for room message fetching.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward/older) or "f" (forward/newer)
	Limit     int    // max events to return; 0 uses server default
	Filter    string // inline RoomEventFilter JSON
}

// RoomMessagesResponse is returned by RoomMessages. An empty End means
// there are no further pages.
type RoomMessagesResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end,omitempty"`
	Chunk []Event `json:"chunk"`
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds
	SetTimeout bool   // send the timeout parameter even when zero
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership state.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// InvitedRoom contains sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by send, state, and redact calls.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// RoomMember is one joined, invited, or banned member of a room.
type RoomMember struct {
	UserID      ref.UserID
	DisplayName string
	Membership  string
	AvatarURL   string
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// PublicRoomsOptions controls the public room directory listing.
type PublicRoomsOptions struct {
	Server string // remote server to query; empty for the local directory
	Limit  int
	Since  string
}

// PublishedRoom is a room entry in the public directory or a space
// hierarchy.
type PublishedRoom struct {
	RoomID           ref.RoomID `json:"room_id"`
	Name             string     `json:"name,omitempty"`
	Topic            string     `json:"topic,omitempty"`
	CanonicalAlias   string     `json:"canonical_alias,omitempty"`
	NumJoinedMembers int        `json:"num_joined_members"`
	WorldReadable    bool       `json:"world_readable"`
	GuestCanJoin     bool       `json:"guest_can_join"`
	JoinRule         string     `json:"join_rule,omitempty"`
	RoomType         string     `json:"room_type,omitempty"`
}

// DisplayName returns the name, else the canonical alias, else "".
func (room PublishedRoom) DisplayName() string {
	if room.Name != "" {
		return room.Name
	}
	return room.CanonicalAlias
}

// PublicRoomsResponse is returned by PublicRooms.
type PublicRoomsResponse struct {
	Chunk                  []PublishedRoom `json:"chunk"`
	NextBatch              string          `json:"next_batch,omitempty"`
	PrevBatch              string          `json:"prev_batch,omitempty"`
	TotalRoomCountEstimate int             `json:"total_room_count_estimate,omitempty"`
}

// HierarchyOptions controls the room hierarchy walk.
type HierarchyOptions struct {
	From          string
	Limit         int
	MaxDepth      int
	SuggestedOnly bool
}

// HierarchyRoom is one room in a space hierarchy page.
type HierarchyRoom struct {
	PublishedRoom
	ChildrenState []Event `json:"children_state"`
}

// HierarchyResponse is one page of the room hierarchy.
type HierarchyResponse struct {
	Rooms     []HierarchyRoom `json:"rooms"`
	NextBatch string          `json:"next_batch,omitempty"`
}

// UserDirectoryResponse is returned by SearchUserDirectory.
type UserDirectoryResponse struct {
	Limited bool                 `json:"limited"`
	Results []UserDirectoryEntry `json:"results"`
}

// UserDirectoryEntry is one search result.
type UserDirectoryEntry struct {
	UserID      ref.UserID `json:"user_id"`
	DisplayName string     `json:"display_name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
}

// Profile is a user's global profile.
type Profile struct {
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Presence is the body of PUT and the response of GET
// /presence/{userId}/status.
type Presence struct {
	Presence        string `json:"presence"`
	StatusMsg       string `json:"status_msg,omitempty"`
	LastActiveAgo   int64  `json:"last_active_ago,omitempty"`
	CurrentlyActive bool   `json:"currently_active,omitempty"`
}
