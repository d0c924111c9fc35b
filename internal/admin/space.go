// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/bureau-foundation/warden/lib/spacelink"
)

// spaceArgument turns a link argument into a room ID string. Aliases go
// through the directory. Anything else is passed through unchanged so
// the linker rejects malformed room IDs itself.
func (a *Admin) spaceArgument(ctx context.Context, raw string, request Request) (string, error) {
	if !strings.HasPrefix(raw, "#") {
		return raw, nil
	}
	roomID, err := a.resolveAliasToRoom(ctx, raw, request)
	if err != nil {
		return "", err
	}
	return roomID.String(), nil
}

func handleLink(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	space, err := a.spaceArgument(ctx, args[0], request)
	if err != nil {
		return "", err
	}
	child, err := a.spaceArgument(ctx, args[1], request)
	if err != nil {
		return "", err
	}
	suggested := len(args) > 2 && (strings.EqualFold(args[2], "suggested") || isAffirmative(args[2]))

	result, err := a.linker.Link(ctx, space, child, suggested)
	if err != nil {
		return "", describeLinkFailure(result, err)
	}
	reply := fmt.Sprintf("Linked %s into space %s (via %s).", result.ChildID, result.SpaceID, result.Via)
	if suggested {
		reply += " Marked as suggested."
	}
	return reply, nil
}

func handleUnlink(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	space, err := a.spaceArgument(ctx, args[0], request)
	if err != nil {
		return "", err
	}
	child, err := a.spaceArgument(ctx, args[1], request)
	if err != nil {
		return "", err
	}

	result, err := a.linker.Unlink(ctx, space, child)
	if err != nil {
		return "", describeLinkFailure(result, err)
	}
	reply := fmt.Sprintf("Unlinked %s from space %s.", result.ChildID, result.SpaceID)
	if result.ChildAbsent {
		reply += " The child room had no parent link."
	}
	return reply, nil
}

// describeLinkFailure adds the state of the space side to a failure
// after the first write.
func describeLinkFailure(result *spacelink.Result, err error) error {
	if result == nil || !result.SpaceWritten {
		return err
	}
	switch {
	case result.Compensated:
		return fmt.Errorf("%w (the space was restored to its previous state)", err)
	case result.CompensationErr != nil:
		return fmt.Errorf("%w (restoring the space also failed: %v; fix %s in %s by hand)",
			err, result.CompensationErr, result.ChildID, result.SpaceID)
	}
	return err
}
