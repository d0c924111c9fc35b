// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/lib/secret"
)

// DirectSession is an authenticated Matrix session. It wraps a Client
// with an access token held in a secret.Buffer. The caller must call
// Close when the DirectSession is no longer needed.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID
	deviceID    string

	// transactionCounter generates unique transaction IDs for idempotent sends.
	transactionCounter atomic.Int64
}

// UserID returns the fully-qualified Matrix user ID of the session.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// DeviceID returns the device ID for this session, if known.
func (s *DirectSession) DeviceID() string {
	return s.deviceID
}

// AccessToken returns a heap copy of the access token. Used by the
// login command to print a credential file.
func (s *DirectSession) AccessToken() string {
	return s.accessToken.String()
}

// Close releases the access token memory. Idempotent.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

func roomPath(roomID ref.RoomID, suffix string) string {
	return "/_matrix/client/v3/rooms/" + url.PathEscape(roomID.String()) + suffix
}

// WhoAmI validates the access token and returns the user ID.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// CreateRoom creates a new Matrix room.
func (s *DirectSession) CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error) {
	body, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/createRoom", s.accessToken, request)
	if err != nil {
		return nil, fmt.Errorf("messaging: create room failed: %w", err)
	}

	var response CreateRoomResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse createRoom response: %w", err)
	}

	s.client.logger.Info("created matrix room",
		"room_id", response.RoomID,
		"name", request.Name,
		"preset", request.Preset,
	)
	return &response, nil
}

// JoinRoom joins a room by ID. Returns the joined room ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: join room %s failed: %w", roomID, err)
	}

	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse join response: %w", err)
	}
	return response.RoomID, nil
}

// LeaveRoom leaves a room.
func (s *DirectSession) LeaveRoom(ctx context.Context, roomID ref.RoomID) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/leave"), s.accessToken, struct{}{}); err != nil {
		return fmt.Errorf("messaging: leave room %s failed: %w", roomID, err)
	}
	return nil
}

// ForgetRoom removes a room the user has left from their room list.
func (s *DirectSession) ForgetRoom(ctx context.Context, roomID ref.RoomID) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/forget"), s.accessToken, struct{}{}); err != nil {
		return fmt.Errorf("messaging: forget room %s failed: %w", roomID, err)
	}
	return nil
}

// KnockRoom asks to join a room with a knock join rule. roomIDOrAlias
// may be a room ID or an alias.
func (s *DirectSession) KnockRoom(ctx context.Context, roomIDOrAlias, reason string) (ref.RoomID, error) {
	path := "/_matrix/client/v3/knock/" + url.PathEscape(roomIDOrAlias)
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, reasonBody{Reason: reason})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: knock on %s failed: %w", roomIDOrAlias, err)
	}

	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse knock response: %w", err)
	}
	return response.RoomID, nil
}

type reasonBody struct {
	Reason string `json:"reason,omitempty"`
}

type membershipBody struct {
	UserID ref.UserID `json:"user_id"`
	Reason string     `json:"reason,omitempty"`
}

// InviteUser invites a user to a room.
func (s *DirectSession) InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/invite"), s.accessToken, membershipBody{UserID: userID}); err != nil {
		return fmt.Errorf("messaging: invite %s to %s failed: %w", userID, roomID, err)
	}
	return nil
}

// KickUser removes a user from a room with an optional reason.
func (s *DirectSession) KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/kick"), s.accessToken, membershipBody{UserID: userID, Reason: reason}); err != nil {
		return fmt.Errorf("messaging: kick %s from %s failed: %w", userID, roomID, err)
	}
	return nil
}

// BanUser bans a user from a room with an optional reason.
func (s *DirectSession) BanUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/ban"), s.accessToken, membershipBody{UserID: userID, Reason: reason}); err != nil {
		return fmt.Errorf("messaging: ban %s from %s failed: %w", userID, roomID, err)
	}
	return nil
}

// UnbanUser lifts a ban.
func (s *DirectSession) UnbanUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	if _, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/unban"), s.accessToken, membershipBody{UserID: userID}); err != nil {
		return fmt.Errorf("messaging: unban %s in %s failed: %w", userID, roomID, err)
	}
	return nil
}

// SendMessage sends an m.room.message event. Returns the event ID.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, schema.MatrixEventTypeMessage, content)
}

// SendEvent sends an event of any type to a room using the idempotent
// PUT with a transaction ID. Returns the event ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	return s.SendEventWithTransaction(ctx, roomID, eventType, s.nextTransactionID(), content)
}

// SendEventWithTransaction sends an event under a caller-chosen
// transaction ID. The homeserver returns the original event ID when the
// same ID is reused by this device, so a deterministic ID makes a
// repeated send a no-op.
func (s *DirectSession) SendEventWithTransaction(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, transactionID string, content any) (ref.EventID, error) {
	path := roomPath(roomID, "/send/"+url.PathEscape(eventType.String())+"/"+url.PathEscape(transactionID))
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send event to %s failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// SendStateEvent sets a state event in a room. Returns the event ID.
func (s *DirectSession) SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error) {
	path := roomPath(roomID, "/state/"+url.PathEscape(eventType.String())+"/"+url.PathEscape(stateKey))
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send state event %s/%s to %s failed: %w", eventType, stateKey, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send state response: %w", err)
	}
	return response.EventID, nil
}

// GetStateEvent fetches the content of one state event. If the event
// does not exist the error is a *MatrixError with code M_NOT_FOUND.
func (s *DirectSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	path := roomPath(roomID, "/state/"+url.PathEscape(eventType.String())+"/"+url.PathEscape(stateKey))
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get state event %s/%s in %s failed: %w", eventType, stateKey, roomID, err)
	}
	return json.RawMessage(body), nil
}

// GetRoomState fetches all current state events of a room.
func (s *DirectSession) GetRoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, roomPath(roomID, "/state"), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get room state for %s failed: %w", roomID, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room state response: %w", err)
	}
	return events, nil
}

// GetEvent fetches a single event by ID.
func (s *DirectSession) GetEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) (*Event, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, roomPath(roomID, "/event/"+url.PathEscape(eventID.String())), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get event %s in %s failed: %w", eventID, roomID, err)
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse event response: %w", err)
	}
	return &event, nil
}

// RoomMessages fetches one page of room history.
func (s *DirectSession) RoomMessages(ctx context.Context, roomID ref.RoomID, options RoomMessagesOptions) (*RoomMessagesResponse, error) {
	query := url.Values{}
	if options.From != "" {
		query.Set("from", options.From)
	}
	direction := options.Direction
	if direction == "" {
		direction = "b" // newest first
	}
	query.Set("dir", direction)
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, roomPath(roomID, "/messages"), s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: room messages for %s failed: %w", roomID, err)
	}

	var response RoomMessagesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse messages response: %w", err)
	}
	return &response, nil
}

// Redact removes the content of an event. Returns the redaction event ID.
func (s *DirectSession) Redact(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error) {
	path := roomPath(roomID, "/redact/"+url.PathEscape(eventID.String())+"/"+url.PathEscape(s.nextTransactionID()))
	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, reasonBody{Reason: reason})
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: redact %s in %s failed: %w", eventID, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse redact response: %w", err)
	}
	return response.EventID, nil
}

// Sync performs a sync with the homeserver. Leave options.Since empty
// for the initial sync.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout || options.Timeout > 0 {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// JoinedRooms returns the rooms the user has joined.
func (s *DirectSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/joined_rooms", s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: joined rooms failed: %w", err)
	}

	var response struct {
		JoinedRooms []ref.RoomID `json:"joined_rooms"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse joined rooms response: %w", err)
	}
	return response.JoinedRooms, nil
}

// GetRoomMembers returns the member events of a room. Events whose
// state key is not a valid user ID are skipped.
func (s *DirectSession) GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, roomPath(roomID, "/members"), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get room members for %s failed: %w", roomID, err)
	}

	var response struct {
		Chunk []struct {
			StateKey string               `json:"state_key"`
			Content  schema.MemberContent `json:"content"`
		} `json:"chunk"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room members response: %w", err)
	}

	members := make([]RoomMember, 0, len(response.Chunk))
	for _, event := range response.Chunk {
		userID, err := ref.ParseUserID(event.StateKey)
		if err != nil {
			s.client.logger.Warn("skipping member event with invalid state key",
				"room_id", roomID, "state_key", event.StateKey)
			continue
		}
		members = append(members, RoomMember{
			UserID:      userID,
			DisplayName: event.Content.DisplayName,
			Membership:  event.Content.Membership,
			AvatarURL:   event.Content.AvatarURL,
		})
	}
	return members, nil
}

// GetRoomMember returns one user's m.room.member content in a room.
func (s *DirectSession) GetRoomMember(ctx context.Context, roomID ref.RoomID, userID ref.UserID) (*schema.MemberContent, error) {
	member, err := GetState[schema.MemberContent](ctx, s, roomID, schema.MatrixEventTypeMember, userID.String())
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// nextTransactionID generates a unique transaction ID for idempotent
// sends: "warden-<timestamp_ms>-<counter>".
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("warden-%d-%d", time.Now().UnixMilli(), counter)
}
