// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/warden/lib/ref"
)

// Matrix defaults applied when a power_levels field is absent.
const (
	DefaultUserLevel  = 0
	DefaultStateLevel = 50
)

// Named roles accepted by the promote command.
const (
	PowerLevelModerator = 50
	PowerLevelAdmin     = 100
)

// PowerLevels is a typed representation of the m.room.power_levels
// state event content. It supports typed read-modify-write operations:
// unmarshal the raw JSON from GetStateEvent, modify with SetUserLevel,
// then send the struct back with SendStateEvent.
//
// Pointer-to-int fields distinguish "not set" (nil, omitted from JSON)
// from "explicitly set to 0". This preserves server defaults for fields
// the caller doesn't touch.
type PowerLevels struct {
	Users         map[string]int `json:"users,omitempty"`
	UsersDefault  *int           `json:"users_default,omitempty"`
	Events        map[string]int `json:"events,omitempty"`
	EventsDefault *int           `json:"events_default,omitempty"`
	StateDefault  *int           `json:"state_default,omitempty"`
	Invite        *int           `json:"invite,omitempty"`
	Ban           *int           `json:"ban,omitempty"`
	Kick          *int           `json:"kick,omitempty"`
	Redact        *int           `json:"redact,omitempty"`
	Notifications map[string]int `json:"notifications,omitempty"`
}

// UserLevel returns the power level for a Matrix user ID string: the
// explicit Users entry, else UsersDefault, else 0.
func (powerLevels *PowerLevels) UserLevel(userID string) int {
	if level, ok := powerLevels.Users[userID]; ok {
		return level
	}
	if powerLevels.UsersDefault != nil {
		return *powerLevels.UsersDefault
	}
	return DefaultUserLevel
}

// StateLevel returns the level required to send a state event of the
// given type: the explicit Events entry, else StateDefault, else 50.
func (powerLevels *PowerLevels) StateLevel(eventType ref.EventType) int {
	if level, ok := powerLevels.Events[string(eventType)]; ok {
		return level
	}
	if powerLevels.StateDefault != nil {
		return *powerLevels.StateDefault
	}
	return DefaultStateLevel
}

// CanSendState reports whether userID may send a state event of the
// given type.
func (powerLevels *PowerLevels) CanSendState(userID string, eventType ref.EventType) bool {
	return powerLevels.UserLevel(userID) >= powerLevels.StateLevel(eventType)
}

// SetUserLevel sets the power level for a Matrix user ID. Initializes
// the Users map if nil. Setting a user to the users_default level
// removes the explicit entry.
func (powerLevels *PowerLevels) SetUserLevel(userID ref.UserID, level int) {
	defaultLevel := DefaultUserLevel
	if powerLevels.UsersDefault != nil {
		defaultLevel = *powerLevels.UsersDefault
	}
	if level == defaultLevel {
		delete(powerLevels.Users, userID.String())
		return
	}
	if powerLevels.Users == nil {
		powerLevels.Users = make(map[string]int)
	}
	powerLevels.Users[userID.String()] = level
}

// ParsePowerRole converts an operator-supplied level into an integer.
// Accepts the role names mod, moderator, admin, and owner, or a decimal
// integer. An empty string means moderator.
func ParsePowerRole(text string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "mod", "moderator":
		return PowerLevelModerator, nil
	case "admin", "owner":
		return PowerLevelAdmin, nil
	}
	level, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("unknown power level %q (use mod, admin, or a number)", text)
	}
	return level, nil
}

// IsPowerRole reports whether text is a role name or an integer level,
// as opposed to a room ID or other positional argument.
func IsPowerRole(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "!") || strings.HasPrefix(text, "#") {
		return false
	}
	_, err := ParsePowerRole(text)
	return err == nil
}

// StateSession is the subset of the Matrix client-server API needed for
// state event read-modify-write operations. Satisfied implicitly by
// messaging.DirectSession.
type StateSession interface {
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)
}

// ReadPowerLevels fetches and decodes the power levels of a room.
func ReadPowerLevels(ctx context.Context, session StateSession, roomID ref.RoomID) (*PowerLevels, error) {
	content, err := session.GetStateEvent(ctx, roomID, MatrixEventTypePowerLevels, "")
	if err != nil {
		return nil, fmt.Errorf("reading power levels for %s: %w", roomID, err)
	}
	var powerLevels PowerLevels
	if err := json.Unmarshal(content, &powerLevels); err != nil {
		return nil, fmt.Errorf("parsing power levels for %s: %w", roomID, err)
	}
	return &powerLevels, nil
}

// SetUserPowerLevel reads the current power levels of a room, sets one
// user's level, and writes the event back. One GET and one PUT.
//
// Other fields of the event are sent back as read, so concurrent edits
// between the two calls are lost.
func SetUserPowerLevel(ctx context.Context, session StateSession, roomID ref.RoomID, userID ref.UserID, level int) error {
	powerLevels, err := ReadPowerLevels(ctx, session, roomID)
	if err != nil {
		return err
	}
	powerLevels.SetUserLevel(userID, level)
	if _, err := session.SendStateEvent(ctx, roomID, MatrixEventTypePowerLevels, "", powerLevels); err != nil {
		return fmt.Errorf("writing power levels for %s: %w", roomID, err)
	}
	return nil
}
