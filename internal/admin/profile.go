// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

func handleSetName(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	name := strings.Join(args, " ")
	if err := a.session.SetDisplayName(ctx, name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Display name set to %q.", name), nil
}

// handleSetAvatar takes an mxc:// URL argument, or the image or sticker
// the command message replies to.
func handleSetAvatar(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	var avatarURL string
	switch {
	case len(args) > 0:
		avatarURL = args[0]
	case !request.InReplyTo.IsZero():
		roomID, err := a.resolveRoom(ctx, "", request)
		if err != nil {
			return "", err
		}
		event, err := a.session.GetEvent(ctx, roomID, request.InReplyTo)
		if err != nil {
			return "", err
		}
		isImage := event.Type == schema.MatrixEventTypeMessage && event.ContentString("msgtype") == schema.MsgTypeImage
		if !isImage && event.Type != schema.MatrixEventTypeSticker {
			return "", fmt.Errorf("%w: the replied-to message is not an image", ErrUsage)
		}
		avatarURL = event.ContentString("url")
	default:
		return "", fmt.Errorf("%w: %s", ErrUsage, builtinCommands["setavatar"].usage)
	}

	if !strings.HasPrefix(avatarURL, "mxc://") {
		return "", fmt.Errorf("%w: avatar must be an mxc:// URL, got %q", ErrUsage, avatarURL)
	}
	if err := a.session.SetAvatarURL(ctx, avatarURL); err != nil {
		return "", err
	}
	return "Avatar updated.", nil
}

func isPresenceState(text string) bool {
	switch text {
	case schema.PresenceOnline, schema.PresenceUnavailable, schema.PresenceOffline:
		return true
	}
	return false
}

// handleSetStatus shows the bot's presence with no arguments, otherwise
// sets the presence state and an optional status message.
func handleSetStatus(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	if len(args) == 0 {
		presence, err := a.session.GetPresence(ctx, a.session.UserID())
		if err != nil {
			return "", err
		}
		return describePresence(presence), nil
	}

	state := strings.ToLower(args[0])
	if !isPresenceState(state) {
		return "", fmt.Errorf("%w: presence must be online, unavailable, or offline, got %q", ErrUsage, args[0])
	}
	presence := messaging.Presence{Presence: state, StatusMsg: strings.Join(args[1:], " ")}
	if err := a.session.SetPresence(ctx, presence); err != nil {
		return "", err
	}
	return describePresence(&presence), nil
}

// handleStatusMessage changes the status message and keeps the current
// presence state. No arguments clears the message.
func handleStatusMessage(ctx context.Context, a *Admin, _ Request, args []string) (string, error) {
	state := schema.PresenceOnline
	current, err := a.session.GetPresence(ctx, a.session.UserID())
	switch {
	case err == nil && isPresenceState(current.Presence):
		state = current.Presence
	case err != nil && !messaging.IsNotFound(err):
		return "", err
	}

	presence := messaging.Presence{Presence: state, StatusMsg: strings.Join(args, " ")}
	if err := a.session.SetPresence(ctx, presence); err != nil {
		return "", err
	}
	if presence.StatusMsg == "" {
		return "Status message cleared.", nil
	}
	return describePresence(&presence), nil
}

func describePresence(presence *messaging.Presence) string {
	if presence.StatusMsg == "" {
		return fmt.Sprintf("Presence: %s", presence.Presence)
	}
	return fmt.Sprintf("Presence: %s (%s)", presence.Presence, presence.StatusMsg)
}
