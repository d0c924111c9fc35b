// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/warden/lib/schema"
)

// handlePromote accepts "promote <user> [role] [room]". The second
// argument is a room when it starts with '!' or '#', otherwise a role.
// An unrecognized role is an error rather than a silent default.
func handlePromote(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}

	role, explicitRoom := "", ""
	switch {
	case len(args) >= 3:
		role, explicitRoom = args[1], args[2]
	case len(args) == 2 && (strings.HasPrefix(args[1], "!") || strings.HasPrefix(args[1], "#")):
		explicitRoom = args[1]
	case len(args) == 2:
		role = args[1]
	}
	if role != "" && !schema.IsPowerRole(role) {
		return "", fmt.Errorf("%w: unknown role %q (use mod, admin, or a number)", ErrUsage, role)
	}
	level, err := schema.ParsePowerRole(role)
	if err != nil {
		return "", err
	}

	roomID, err := a.resolveRoom(ctx, explicitRoom, request)
	if err != nil {
		return "", err
	}
	if err := schema.SetUserPowerLevel(ctx, a.session, roomID, userID, level); err != nil {
		return "", err
	}
	return fmt.Sprintf("Set %s to power level %d.", userID, level), nil
}

func handleDemote(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 1), request)
	if err != nil {
		return "", err
	}
	if err := schema.SetUserPowerLevel(ctx, a.session, roomID, userID, schema.DefaultUserLevel); err != nil {
		return "", err
	}
	return fmt.Sprintf("Demoted %s.", userID), nil
}

func handlePower(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	level, err := schema.ParsePowerRole(args[1])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUsage, err)
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 2), request)
	if err != nil {
		return "", err
	}
	if err := schema.SetUserPowerLevel(ctx, a.session, roomID, userID, level); err != nil {
		return "", err
	}
	return fmt.Sprintf("Set %s to power level %d.", userID, level), nil
}

type rankedUser struct {
	userID string
	level  int
}

func handleAdmins(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 0), request)
	if err != nil {
		return "", err
	}
	powerLevels, err := schema.ReadPowerLevels(ctx, a.session, roomID)
	if err != nil {
		return "", err
	}

	var admins, moderators []rankedUser
	for userID, level := range powerLevels.Users {
		switch {
		case level >= schema.PowerLevelAdmin:
			admins = append(admins, rankedUser{userID, level})
		case level >= schema.PowerLevelModerator:
			moderators = append(moderators, rankedUser{userID, level})
		}
	}
	if len(admins) == 0 && len(moderators) == 0 {
		return fmt.Sprintf("No admins or moderators in %s.", roomID), nil
	}

	var builder strings.Builder
	writeRanked(&builder, "Admins", admins)
	writeRanked(&builder, "Moderators", moderators)
	return strings.TrimSpace(builder.String()), nil
}

// writeRanked lists users by descending level, then by ID.
func writeRanked(builder *strings.Builder, heading string, users []rankedUser) {
	if len(users) == 0 {
		return
	}
	slices.SortFunc(users, func(x, y rankedUser) int {
		if c := cmp.Compare(y.level, x.level); c != 0 {
			return c
		}
		return cmp.Compare(x.userID, y.userID)
	})
	fmt.Fprintf(builder, "**%s**\n\n", heading)
	for _, user := range users {
		builder.WriteString("- " + user.userID + " (" + strconv.Itoa(user.level) + ")\n")
	}
	builder.WriteByte('\n')
}
