// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package memberstore caches room summaries and member profiles
// collected by the roomrefresh command, so lookups such as whois do not
// need a round trip per member.
//
// Two implementations exist: [Valkey], which shares the cache between
// restarts and replicas, and [Memory], for tests and single-process
// deployments without a Valkey server.
package memberstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a room or member has not been cached.
var ErrNotFound = errors.New("memberstore: not found")

// Member is one cached room member.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Membership  string `json:"membership"`
}

// RoomSummary is the cached description of a room.
type RoomSummary struct {
	RoomID         string    `json:"room_id"`
	Name           string    `json:"name,omitempty"`
	Topic          string    `json:"topic,omitempty"`
	CanonicalAlias string    `json:"canonical_alias,omitempty"`
	Encrypted      bool      `json:"encrypted,omitempty"`
	MemberCount    int       `json:"member_count"`
	RefreshedAt    time.Time `json:"refreshed_at"`
}

// Store is implemented by every cache backend.
type Store interface {
	// PutRoom replaces everything cached for summary.RoomID.
	PutRoom(ctx context.Context, summary RoomSummary, members []Member) error
	Room(ctx context.Context, roomID string) (*RoomSummary, error)
	Members(ctx context.Context, roomID string) ([]Member, error)
	Member(ctx context.Context, roomID, userID string) (*Member, error)
	// Rooms lists the IDs of every cached room.
	Rooms(ctx context.Context) ([]string, error)
	DeleteRoom(ctx context.Context, roomID string) error
	Close()
}
