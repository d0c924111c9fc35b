// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bureau-foundation/warden/lib/ref"
)

func profilePath(userID ref.UserID, field string) string {
	path := "/_matrix/client/v3/profile/" + url.PathEscape(userID.String())
	if field != "" {
		path += "/" + field
	}
	return path
}

// GetProfile fetches a user's global display name and avatar.
func (s *DirectSession) GetProfile(ctx context.Context, userID ref.UserID) (*Profile, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, profilePath(userID, ""), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get profile for %s failed: %w", userID, err)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse profile response: %w", err)
	}
	return &profile, nil
}

// SetDisplayName sets the session user's display name.
func (s *DirectSession) SetDisplayName(ctx context.Context, displayName string) error {
	request := struct {
		DisplayName string `json:"displayname"`
	}{DisplayName: displayName}
	if _, err := s.client.doRequest(ctx, http.MethodPut, profilePath(s.userID, "displayname"), s.accessToken, request); err != nil {
		return fmt.Errorf("messaging: set display name failed: %w", err)
	}
	return nil
}

// SetAvatarURL sets the session user's avatar to an mxc:// URI.
func (s *DirectSession) SetAvatarURL(ctx context.Context, avatarURL string) error {
	request := struct {
		AvatarURL string `json:"avatar_url"`
	}{AvatarURL: avatarURL}
	if _, err := s.client.doRequest(ctx, http.MethodPut, profilePath(s.userID, "avatar_url"), s.accessToken, request); err != nil {
		return fmt.Errorf("messaging: set avatar failed: %w", err)
	}
	return nil
}

func presencePath(userID ref.UserID) string {
	return "/_matrix/client/v3/presence/" + url.PathEscape(userID.String()) + "/status"
}

// GetPresence returns a user's presence state and status message.
func (s *DirectSession) GetPresence(ctx context.Context, userID ref.UserID) (*Presence, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, presencePath(userID), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get presence for %s failed: %w", userID, err)
	}

	var presence Presence
	if err := json.Unmarshal(body, &presence); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse presence response: %w", err)
	}
	return &presence, nil
}

// SetPresence sets the session user's presence state and status message.
func (s *DirectSession) SetPresence(ctx context.Context, presence Presence) error {
	request := struct {
		Presence  string `json:"presence"`
		StatusMsg string `json:"status_msg,omitempty"`
	}{Presence: presence.Presence, StatusMsg: presence.StatusMsg}
	if _, err := s.client.doRequest(ctx, http.MethodPut, presencePath(s.userID), s.accessToken, request); err != nil {
		return fmt.Errorf("messaging: set presence failed: %w", err)
	}
	return nil
}

func accountDataPath(userID ref.UserID, eventType ref.EventType) string {
	return "/_matrix/client/v3/user/" + url.PathEscape(userID.String()) + "/account_data/" + url.PathEscape(eventType.String())
}

// GetAccountData reads global account data of the session user. A
// missing type is an M_NOT_FOUND *MatrixError.
func (s *DirectSession) GetAccountData(ctx context.Context, eventType ref.EventType) (json.RawMessage, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, accountDataPath(s.userID, eventType), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: get account data %s failed: %w", eventType, err)
	}
	return json.RawMessage(body), nil
}

// SetAccountData replaces global account data of the session user.
func (s *DirectSession) SetAccountData(ctx context.Context, eventType ref.EventType, content any) error {
	if _, err := s.client.doRequest(ctx, http.MethodPut, accountDataPath(s.userID, eventType), s.accessToken, content); err != nil {
		return fmt.Errorf("messaging: set account data %s failed: %w", eventType, err)
	}
	return nil
}
