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

	"github.com/bureau-foundation/warden/lib/ref"
)

func aliasPath(alias ref.RoomAlias) string {
	return "/_matrix/client/v3/directory/room/" + url.PathEscape(alias.String())
}

// ResolveAlias resolves a room alias to a room ID and the servers that
// know the room.
func (s *DirectSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (*ResolveAliasResponse, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, aliasPath(alias), s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: resolve alias %s failed: %w", alias, err)
	}

	var response ResolveAliasResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse resolve alias response: %w", err)
	}
	return &response, nil
}

// CreateAlias points an alias at a room.
func (s *DirectSession) CreateAlias(ctx context.Context, alias ref.RoomAlias, roomID ref.RoomID) error {
	request := struct {
		RoomID ref.RoomID `json:"room_id"`
	}{RoomID: roomID}
	if _, err := s.client.doRequest(ctx, http.MethodPut, aliasPath(alias), s.accessToken, request); err != nil {
		return fmt.Errorf("messaging: create alias %s for %s failed: %w", alias, roomID, err)
	}
	return nil
}

// DeleteAlias removes an alias mapping.
func (s *DirectSession) DeleteAlias(ctx context.Context, alias ref.RoomAlias) error {
	if _, err := s.client.doRequest(ctx, http.MethodDelete, aliasPath(alias), s.accessToken, nil); err != nil {
		return fmt.Errorf("messaging: delete alias %s failed: %w", alias, err)
	}
	return nil
}

// PublicRooms lists the public room directory of the local server or,
// with options.Server set, of a remote server.
func (s *DirectSession) PublicRooms(ctx context.Context, options PublicRoomsOptions) (*PublicRoomsResponse, error) {
	query := url.Values{}
	if options.Server != "" {
		query.Set("server", options.Server)
	}
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.Since != "" {
		query.Set("since", options.Since)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/publicRooms", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: public rooms failed: %w", err)
	}

	var response PublicRoomsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse public rooms response: %w", err)
	}
	return &response, nil
}

// RoomHierarchy fetches one page of a space's hierarchy.
func (s *DirectSession) RoomHierarchy(ctx context.Context, roomID ref.RoomID, options HierarchyOptions) (*HierarchyResponse, error) {
	query := url.Values{}
	if options.From != "" {
		query.Set("from", options.From)
	}
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}
	if options.MaxDepth > 0 {
		query.Set("max_depth", strconv.Itoa(options.MaxDepth))
	}
	if options.SuggestedOnly {
		query.Set("suggested_only", "true")
	}

	path := "/_matrix/client/v1/rooms/" + url.PathEscape(roomID.String()) + "/hierarchy"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: room hierarchy for %s failed: %w", roomID, err)
	}

	var response HierarchyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse hierarchy response: %w", err)
	}
	return &response, nil
}

// UpgradeRoom replaces a room with a new room of the given version.
// Returns the replacement room ID.
func (s *DirectSession) UpgradeRoom(ctx context.Context, roomID ref.RoomID, newVersion string) (ref.RoomID, error) {
	request := struct {
		NewVersion string `json:"new_version"`
	}{NewVersion: newVersion}
	body, err := s.client.doRequest(ctx, http.MethodPost, roomPath(roomID, "/upgrade"), s.accessToken, request)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: upgrade %s to version %s failed: %w", roomID, newVersion, err)
	}

	var response struct {
		ReplacementRoom ref.RoomID `json:"replacement_room"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse upgrade response: %w", err)
	}

	s.client.logger.Info("upgraded matrix room",
		"room_id", roomID,
		"replacement_room", response.ReplacementRoom,
		"version", newVersion,
	)
	return response.ReplacementRoom, nil
}

// SearchUserDirectory searches users by ID or display name.
func (s *DirectSession) SearchUserDirectory(ctx context.Context, term string, limit int) (*UserDirectoryResponse, error) {
	request := struct {
		SearchTerm string `json:"search_term"`
		Limit      int    `json:"limit,omitempty"`
	}{SearchTerm: term, Limit: limit}
	body, err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/user_directory/search", s.accessToken, request)
	if err != nil {
		return nil, fmt.Errorf("messaging: user directory search failed: %w", err)
	}

	var response UserDirectoryResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse user directory response: %w", err)
	}
	return &response, nil
}
