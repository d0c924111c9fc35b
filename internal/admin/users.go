// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

func handleKick(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, "", request)
	if err != nil {
		return "", err
	}
	reason := strings.Join(args[1:], " ")
	if err := a.session.KickUser(ctx, roomID, userID, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf("Kicked %s.", userID), nil
}

func handleBan(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, "", request)
	if err != nil {
		return "", err
	}
	reason := strings.Join(args[1:], " ")
	if err := a.session.BanUser(ctx, roomID, userID, reason); err != nil {
		return "", err
	}
	return fmt.Sprintf("Banned %s.", userID), nil
}

func handleUnban(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 1), request)
	if err != nil {
		return "", err
	}
	if err := a.session.UnbanUser(ctx, roomID, userID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Unbanned %s in %s.", userID, roomID), nil
}

func handleInvite(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	roomID, err := a.resolveRoom(ctx, optionalArg(args, 1), request)
	if err != nil {
		return "", err
	}
	if err := a.session.InviteUser(ctx, roomID, userID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Invited %s to %s.", userID, roomID), nil
}

// readIgnoredUsers returns the bot's ignore list. A missing account
// data entry is an empty list.
func (a *Admin) readIgnoredUsers(ctx context.Context) (schema.IgnoredUserListContent, error) {
	content := schema.IgnoredUserListContent{IgnoredUsers: map[string]struct{}{}}
	raw, err := a.session.GetAccountData(ctx, schema.MatrixEventTypeIgnoredUserList)
	if err != nil {
		if messaging.IsNotFound(err) {
			return content, nil
		}
		return content, err
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return content, fmt.Errorf("parsing ignored user list: %w", err)
	}
	if content.IgnoredUsers == nil {
		content.IgnoredUsers = map[string]struct{}{}
	}
	return content, nil
}

func handleIgnore(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	content, err := a.readIgnoredUsers(ctx)
	if err != nil {
		return "", err
	}
	if _, exists := content.IgnoredUsers[userID.String()]; exists {
		return fmt.Sprintf("%s is already ignored.", userID), nil
	}
	content.IgnoredUsers[userID.String()] = struct{}{}
	if err := a.session.SetAccountData(ctx, schema.MatrixEventTypeIgnoredUserList, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Ignoring %s.", userID), nil
}

func handleUnignore(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	userID, err := a.resolveUser(args[0], request)
	if err != nil {
		return "", err
	}
	content, err := a.readIgnoredUsers(ctx)
	if err != nil {
		return "", err
	}
	if _, exists := content.IgnoredUsers[userID.String()]; !exists {
		return fmt.Sprintf("%s is not ignored.", userID), nil
	}
	delete(content.IgnoredUsers, userID.String())
	if err := a.session.SetAccountData(ctx, schema.MatrixEventTypeIgnoredUserList, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("No longer ignoring %s.", userID), nil
}

func handleIgnoreList(ctx context.Context, a *Admin, _ Request, _ []string) (string, error) {
	content, err := a.readIgnoredUsers(ctx)
	if err != nil {
		return "", err
	}
	if len(content.IgnoredUsers) == 0 {
		return "No ignored users.", nil
	}
	users := make([]string, 0, len(content.IgnoredUsers))
	for userID := range content.IgnoredUsers {
		users = append(users, userID)
	}
	slices.Sort(users)
	return "**Ignored users**\n\n" + bulletList(users), nil
}

func optionalArg(args []string, index int) string {
	if index < len(args) {
		return args[index]
	}
	return ""
}

func bulletList(items []string) string {
	var builder strings.Builder
	for _, item := range items {
		builder.WriteString("- ")
		builder.WriteString(item)
		builder.WriteByte('\n')
	}
	return builder.String()
}
