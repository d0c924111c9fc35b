// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned when operator input is empty or
	// cannot be shaped into the requested identifier kind.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrUnresolvableDomain is returned when a bare localpart has no
	// context (room hint, bot identity, or server hint) from which to
	// take a server name.
	ErrUnresolvableDomain = errors.New("cannot determine server name")

	// ErrNoRoomContext is returned when a command needs a room but
	// neither an explicit room nor a session room is available.
	ErrNoRoomContext = errors.New("no room specified and no current room")
)

// ResolveUserID turns operator input into a fully-qualified user ID.
//
//	"@alice:example.org"  -> "@alice:example.org" (unchanged)
//	"alice:example.org"   -> "@alice:example.org"
//	"alice", "@alice"     -> "@alice:<domain>"
//
// For a bare localpart the domain comes from roomIDHint when it
// contains a ':', then from botUserID. Room IDs and aliases are
// rejected rather than mistaken for a user.
func ResolveUserID(raw, roomIDHint, botUserID string) (UserID, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return UserID{}, fmt.Errorf("%w: empty user ID", ErrInvalidIdentifier)
	}
	if text[0] == '!' || text[0] == '#' {
		return UserID{}, fmt.Errorf("%w: %q is a room, not a user", ErrInvalidIdentifier, text)
	}

	candidate := text
	switch {
	case text[0] == '@' && strings.Contains(text, ":"):
	case strings.Contains(text, ":"):
		candidate = "@" + text
	default:
		domain := firstDomain(roomIDHint, botUserID)
		if domain == "" {
			return UserID{}, fmt.Errorf("%w for user %q", ErrUnresolvableDomain, text)
		}
		candidate = "@" + strings.TrimPrefix(text, "@") + ":" + domain
	}

	userID, err := ParseUserID(candidate)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}
	return userID, nil
}

// ResolveRoomAlias turns operator input into a fully-qualified room
// alias. The shape rules match ResolveUserID with the '#' sigil. For a
// bare alias the domain comes from roomIDHint, then serverNameHint;
// the bot's own homeserver is not assumed to host the alias.
func ResolveRoomAlias(raw, roomIDHint, serverNameHint string) (RoomAlias, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return RoomAlias{}, fmt.Errorf("%w: empty room alias", ErrInvalidIdentifier)
	}
	if text[0] == '!' || text[0] == '@' {
		return RoomAlias{}, fmt.Errorf("%w: %q is not a room alias", ErrInvalidIdentifier, text)
	}

	candidate := text
	switch {
	case text[0] == '#' && strings.Contains(text, ":"):
	case strings.Contains(text, ":"):
		candidate = "#" + text
	default:
		domain := DomainOf(strings.TrimSpace(roomIDHint))
		if domain == "" {
			domain = strings.TrimSpace(serverNameHint)
		}
		if domain == "" {
			return RoomAlias{}, fmt.Errorf("%w for alias %q", ErrUnresolvableDomain, text)
		}
		candidate = "#" + strings.TrimPrefix(text, "#") + ":" + domain
	}

	alias, err := ParseRoomAlias(candidate)
	if err != nil {
		return RoomAlias{}, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}
	return alias, nil
}

// ResolveTargetRoom picks the room a command acts on: the explicit
// argument when given, otherwise the room the command arrived in. The
// result is not validated; it may be a room ID or an alias.
func ResolveTargetRoom(explicit, session string) (string, error) {
	if room := strings.TrimSpace(explicit); room != "" {
		return room, nil
	}
	if room := strings.TrimSpace(session); room != "" {
		return room, nil
	}
	return "", ErrNoRoomContext
}

// firstDomain returns the domain of the first identifier that has one.
func firstDomain(identifiers ...string) string {
	for _, identifier := range identifiers {
		if domain := DomainOf(strings.TrimSpace(identifier)); domain != "" {
			return domain
		}
	}
	return ""
}
