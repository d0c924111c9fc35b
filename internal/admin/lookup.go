// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

const defaultSearchLimit = 10

// handleWhois reports the profile of a user and, when the command has a
// room, their membership and power level there. Room lookups are best
// effort: a failure is shown inline instead of failing the command.
func handleWhois(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "**%s**\n\n", userID)

	profile, err := a.session.GetProfile(ctx, userID)
	switch {
	case err == nil:
		fmt.Fprintf(&builder, "- Display name: %s\n", valueOrNone(profile.DisplayName))
		fmt.Fprintf(&builder, "- Avatar: %s\n", valueOrNone(profile.AvatarURL))
	case messaging.IsNotFound(err):
		builder.WriteString("- Profile: not found\n")
	default:
		return "", err
	}

	if request.RoomID == "" {
		return strings.TrimSpace(builder.String()), nil
	}
	roomID, err := a.resolveRoom(ctx, "", request)
	if err != nil {
		return "", err
	}

	member, err := a.session.GetRoomMember(ctx, roomID, userID)
	switch {
	case err == nil:
		fmt.Fprintf(&builder, "- Membership: %s\n", member.Membership)
	case messaging.IsNotFound(err):
		builder.WriteString("- Membership: none\n")
	default:
		fmt.Fprintf(&builder, "- Membership: unavailable (%v)\n", err)
	}

	if powerLevels, err := schema.ReadPowerLevels(ctx, a.session, roomID); err == nil {
		fmt.Fprintf(&builder, "- Power level: %d\n", powerLevels.UserLevel(userID.String()))
	} else {
		a.logger.Debug("whois power level lookup failed", "room_id", roomID, "error", err)
	}

	cached, err := a.store.Member(ctx, roomID.String(), userID.String())
	switch {
	case err == nil:
		fmt.Fprintf(&builder, "- Cached membership: %s\n", cached.Membership)
	case errors.Is(err, memberstore.ErrNotFound):
	default:
		a.logger.Warn("member cache lookup failed", "room_id", roomID, "error", err)
	}
	return strings.TrimSpace(builder.String()), nil
}

func handleSearch(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	term := args[0]
	limit := defaultSearchLimit
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed <= 0 {
			return "", fmt.Errorf("%w: limit must be a positive integer, got %q", ErrUsage, args[1])
		}
		limit = parsed
	}

	response, err := a.session.SearchUserDirectory(ctx, term, limit)
	if err != nil {
		return "", err
	}
	if len(response.Results) == 0 {
		return fmt.Sprintf("No users match %q.", term), nil
	}

	lines := make([]string, 0, len(response.Results))
	for _, entry := range response.Results {
		if entry.DisplayName != "" {
			lines = append(lines, fmt.Sprintf("%s (%s)", entry.UserID, entry.DisplayName))
		} else {
			lines = append(lines, entry.UserID.String())
		}
	}
	reply := fmt.Sprintf("**Users matching %q**\n\n%s", term, bulletList(lines))
	if response.Limited {
		reply += "\nMore results are available; raise the limit to see them."
	}
	return strings.TrimSpace(reply), nil
}

func valueOrNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
