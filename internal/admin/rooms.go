// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/paginate"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

const defaultListLimit = 20

func handleCreateRoom(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	request := messaging.CreateRoomRequest{
		Name:       args[0],
		Visibility: "private",
		Preset:     "private_chat",
	}
	if len(args) > 1 && isAffirmative(args[1]) {
		request.Visibility = "public"
		request.Preset = "public_chat"
	}
	response, err := a.session.CreateRoom(ctx, request)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %s room %q: %s", request.Visibility, request.Name, response.RoomID), nil
}

func isAffirmative(text string) bool {
	switch strings.ToLower(text) {
	case "yes", "true", "1", "public":
		return true
	}
	return false
}

func handleDirectMessage(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	response, err := a.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Invite:   []string{userID.String()},
		IsDirect: true,
		Preset:   "trusted_private_chat",
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Opened a direct chat with %s: %s", userID, response.RoomID), nil
}

// resolveAlias qualifies operator input as an alias, taking a missing
// server name from the command's room and then the configured alias
// server. The bot's own homeserver is never assumed.
func (a *Admin) resolveAlias(raw string, request Request) (ref.RoomAlias, error) {
	return ref.ResolveRoomAlias(raw, request.RoomID, a.aliasServer)
}

func handleAliasSet(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	alias, err := a.resolveAlias(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 1), request)
	if err != nil {
		return "", err
	}
	if err := a.session.CreateAlias(ctx, alias, roomID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s now points to %s.", alias, roomID), nil
}

func handleAliasDelete(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	alias, err := a.resolveAlias(args[0], request)
	if err != nil {
		return "", err
	}
	if err := a.session.DeleteAlias(ctx, alias); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %s.", alias), nil
}

func handleAliasGet(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	alias, err := a.resolveAlias(args[0], request)
	if err != nil {
		return "", err
	}
	response, err := a.session.ResolveAlias(ctx, alias)
	if err != nil {
		if messaging.IsNotFound(err) {
			return fmt.Sprintf("%s does not exist.", alias), nil
		}
		return "", err
	}
	reply := fmt.Sprintf("%s → %s", alias, response.RoomID)
	if len(response.Servers) > 0 {
		reply += " (via " + strings.Join(response.Servers, ", ") + ")"
	}
	return reply, nil
}

// splitTargetAndLimit reads "[target] [limit]". A lone numeric argument
// is the limit.
func splitTargetAndLimit(args []string) (string, int, error) {
	target, limitText := "", ""
	switch {
	case len(args) >= 2:
		target, limitText = args[0], args[1]
	case len(args) == 1:
		if _, err := strconv.Atoi(args[0]); err == nil {
			limitText = args[0]
		} else {
			target = args[0]
		}
	}
	if limitText == "" {
		return target, defaultListLimit, nil
	}
	limit, err := strconv.Atoi(limitText)
	if err != nil || limit <= 0 {
		return "", 0, fmt.Errorf("%w: limit must be a positive integer, got %q", ErrUsage, limitText)
	}
	return target, limit, nil
}

func handlePublicRooms(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	server, limit, err := splitTargetAndLimit(args)
	if err != nil {
		return "", err
	}
	if server != "" {
		if _, err := ref.ParseServerName(server); err != nil {
			return "", fmt.Errorf("%w: %w", ref.ErrInvalidIdentifier, err)
		}
	}

	walker := paginate.Walker[messaging.PublishedRoom]{
		Fetch: func(ctx context.Context, token string, pageSize int) (paginate.Page[messaging.PublishedRoom], error) {
			response, err := a.session.PublicRooms(ctx, messaging.PublicRoomsOptions{
				Server: server,
				Limit:  pageSize,
				Since:  token,
			})
			if err != nil {
				return paginate.Page[messaging.PublishedRoom]{}, err
			}
			return paginate.Page[messaging.PublishedRoom]{Items: response.Chunk, Next: response.NextBatch}, nil
		},
		Key: func(room messaging.PublishedRoom) string { return room.RoomID.String() },
	}
	rooms, _, err := walker.Walk(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(rooms) == 0 {
		return "The public room directory is empty.", nil
	}

	lines := make([]string, 0, len(rooms))
	for _, room := range rooms {
		lines = append(lines, describeRoom(room))
	}
	return "**Public rooms**\n\n" + bulletList(lines), nil
}

func describeRoom(room messaging.PublishedRoom) string {
	name := room.DisplayName()
	if name == "" {
		name = room.RoomID.String()
	}
	return fmt.Sprintf("%s (%s, %d members)", name, room.RoomID, room.NumJoinedMembers)
}

func handleForget(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 0), request)
	if err != nil {
		return "", err
	}
	if err := a.session.ForgetRoom(ctx, roomID); err != nil {
		return "", err
	}
	if err := a.store.DeleteRoom(ctx, roomID.String()); err != nil {
		a.logger.Warn("dropping forgotten room from cache failed", "room_id", roomID, "error", err)
	}
	return fmt.Sprintf("Forgot %s.", roomID), nil
}

// handleKnock accepts a room ID or alias. The knock endpoint takes
// either, so aliases are qualified but not resolved.
func handleKnock(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	target := args[0]
	if strings.HasPrefix(target, "!") {
		roomID, err := ref.ParseRoomID(target)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ref.ErrInvalidIdentifier, err)
		}
		target = roomID.String()
	} else {
		alias, err := a.resolveAlias(target, request)
		if err != nil {
			return "", err
		}
		target = alias.String()
	}

	roomID, err := a.session.KnockRoom(ctx, target, strings.Join(args[1:], " "))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Knocked on %s.", roomID), nil
}

func handleUpgrade(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	version := args[0]
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 1), request)
	if err != nil {
		return "", err
	}
	replacement, err := a.session.UpgradeRoom(ctx, roomID, version)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Upgraded %s to version %s. The new room is %s.", roomID, version, replacement), nil
}

func handleHierarchy(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	explicit, limit, err := splitTargetAndLimit(args)
	if err != nil {
		return "", err
	}
	spaceID, err := a.resolveRoom(ctx, explicit, request)
	if err != nil {
		return "", err
	}

	walker := paginate.Walker[messaging.HierarchyRoom]{
		Fetch: func(ctx context.Context, token string, pageSize int) (paginate.Page[messaging.HierarchyRoom], error) {
			response, err := a.session.RoomHierarchy(ctx, spaceID, messaging.HierarchyOptions{
				From:  token,
				Limit: pageSize,
			})
			if err != nil {
				return paginate.Page[messaging.HierarchyRoom]{}, err
			}
			return paginate.Page[messaging.HierarchyRoom]{Items: response.Rooms, Next: response.NextBatch}, nil
		},
		Key: func(room messaging.HierarchyRoom) string { return room.RoomID.String() },
	}
	rooms, stats, err := walker.Walk(ctx, limit)
	if err != nil {
		return "", err
	}
	if len(rooms) == 0 {
		return fmt.Sprintf("%s has no rooms.", spaceID), nil
	}

	lines := make([]string, 0, len(rooms))
	for _, room := range rooms {
		line := describeRoom(room.PublishedRoom)
		if room.RoomType == "m.space" {
			line += " [space]"
		}
		lines = append(lines, line)
	}
	reply := fmt.Sprintf("**Hierarchy of %s**\n\n%s", spaceID, bulletList(lines))
	if !stats.Exhausted {
		reply += "\nMore rooms are available; raise the limit to see them."
	}
	return strings.TrimSpace(reply), nil
}

// handleRoomRefresh reloads the cached summary and members of one room,
// or of every joined room for "all".
func handleRoomRefresh(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "all") {
		return a.refreshAllRooms(ctx)
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 0), request)
	if err != nil {
		return "", err
	}
	summary, stateRead, err := a.refreshRoom(ctx, roomID)
	if err != nil {
		return "", err
	}

	lines := []string{fmt.Sprintf("Refreshed %s: %d members.", roomID, summary.MemberCount)}
	if !stateRead {
		lines = append(lines, "Room state could not be read; name, alias, topic and encryption were not refreshed.")
	} else {
		encryption := "no"
		if summary.Encrypted {
			encryption = "yes"
		}
		lines = append(lines,
			"Name: "+valueOrNone(summary.Name),
			"Alias: "+valueOrNone(summary.CanonicalAlias),
			"Topic: "+valueOrNone(summary.Topic),
			"Encrypted: "+encryption,
		)
	}
	return strings.Join(lines, "\n"), nil
}

// refreshAllRooms refreshes joined rooms one at a time.
func (a *Admin) refreshAllRooms(ctx context.Context) (string, error) {
	rooms, err := a.session.JoinedRooms(ctx)
	if err != nil {
		return "", err
	}

	var succeeded, failed int
	for _, roomID := range rooms {
		if err := ctx.Err(); err != nil {
			return fmt.Sprintf("Refreshed %d rooms, %d failed before stopping.", succeeded, failed), err
		}
		if _, _, err := a.refreshRoom(ctx, roomID); err != nil {
			a.logger.Warn("room refresh failed", "room_id", roomID, "error", err)
			failed++
			continue
		}
		succeeded++
	}
	return fmt.Sprintf("Refreshed %d rooms, %d failed.", succeeded, failed), nil
}

// refreshRoom reads the joined members and state of a room and replaces
// its cache entry. Only a failed member read fails the room. When the
// state cannot be read the summary fields keep their cached values and
// stateRead is false.
func (a *Admin) refreshRoom(ctx context.Context, roomID ref.RoomID) (summary *memberstore.RoomSummary, stateRead bool, err error) {
	roomMembers, err := a.session.GetRoomMembers(ctx, roomID)
	if err != nil {
		return nil, false, err
	}

	summary = &memberstore.RoomSummary{RoomID: roomID.String()}
	state, stateErr := a.session.GetRoomState(ctx, roomID)
	if stateErr != nil {
		a.logger.Debug("room state unreadable, keeping cached summary", "room_id", roomID, "error", stateErr)
		if cached, cacheErr := a.store.Room(ctx, roomID.String()); cacheErr == nil {
			summary = cached
		}
	}
	summary.RefreshedAt = a.clock.Now()
	for index := range state {
		event := &state[index]
		if event.StateKey == nil || *event.StateKey != "" {
			continue
		}
		switch event.Type {
		case schema.MatrixEventTypeName:
			summary.Name = event.ContentString("name")
		case schema.MatrixEventTypeTopic:
			summary.Topic = event.ContentString("topic")
		case schema.MatrixEventTypeCanonicalAlias:
			summary.CanonicalAlias = event.ContentString("alias")
		case schema.MatrixEventTypeEncryption:
			summary.Encrypted = event.ContentString("algorithm") != ""
		}
	}

	members := make([]memberstore.Member, 0, len(roomMembers))
	for _, member := range roomMembers {
		if member.Membership != schema.MembershipJoin {
			continue
		}
		members = append(members, memberstore.Member{
			UserID:      member.UserID.String(),
			DisplayName: member.DisplayName,
			AvatarURL:   member.AvatarURL,
			Membership:  member.Membership,
		})
	}
	summary.MemberCount = len(members)

	if err := a.store.PutRoom(ctx, *summary, members); err != nil {
		return nil, false, err
	}
	return summary, stateErr == nil, nil
}
