// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package spacelink creates and removes the two-sided relationship
// between a Matrix space and one of its child rooms.
//
// A relationship is two state events: m.space.child in the space (state
// key = child room ID) and m.space.parent in the child room (state key =
// space room ID). Matrix has no multi-room transaction, so a Linker
// writes the space side first and, if the child side then fails,
// restores the space side to what it held before the attempt. One
// compensating write is made; if it also fails the relationship is left
// half-written and the failure is logged next to the original error.
//
// Preconditions are checked in a fixed order, and the syntactic ones
// (room ID shape, self-link) never touch the network:
//
//  1. both room IDs parse
//  2. the rooms differ
//  3. the acting user may send m.space.child in the space
//  4. the acting user may send m.space.parent in the child room
//
// Power levels that cannot be read do not fail the operation; the check
// for that room is skipped and the homeserver remains the authority.
package spacelink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

var (
	ErrMalformedRoomID        = errors.New("malformed room ID")
	ErrSelfLinkRejected       = errors.New("a room cannot be linked to itself")
	ErrInsufficientPermission = errors.New("insufficient power level")
	ErrNoViaServer            = errors.New("no via server could be derived")
	ErrRemoteCallFailed       = errors.New("homeserver request failed")
)

// emptyContent is written to retire a relationship and to roll back a
// side that held nothing before the attempt.
var emptyContent = json.RawMessage(`{}`)

// Session is the part of a Matrix session a Linker needs.
type Session interface {
	UserID() ref.UserID
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error)
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string, content any) (ref.EventID, error)
}

// Direction distinguishes creating a relationship from removing one.
type Direction int

const (
	DirectionLink Direction = iota
	DirectionUnlink
)

func (direction Direction) String() string {
	if direction == DirectionUnlink {
		return "unlink"
	}
	return "link"
}

// Result describes what a Link or Unlink call did. It is returned
// alongside the error so callers can report partial outcomes.
type Result struct {
	Direction Direction
	SpaceID   ref.RoomID
	ChildID   ref.RoomID
	Via       ref.ServerName

	// Prior is the space-side content read before the first write. Nil
	// when the event did not exist or could not be read; PriorRead
	// tells the two apart.
	Prior     json.RawMessage
	PriorRead bool

	SpaceWritten bool
	ChildWritten bool

	// ChildAbsent is set by Unlink when the child side reported
	// M_NOT_FOUND, which counts as already unlinked.
	ChildAbsent bool

	Compensated     bool
	CompensationErr error
}

// Linker performs guarded link and unlink operations as the session's
// user.
type Linker struct {
	session Session
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns a Linker. metrics may be nil.
func New(session Session, logger *slog.Logger, recorder *metrics.Metrics) *Linker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Linker{session: session, logger: logger, metrics: recorder}
}

// Link makes childRaw a child of spaceRaw. suggested is carried in the
// space-side record.
func (linker *Linker) Link(ctx context.Context, spaceRaw, childRaw string, suggested bool) (*Result, error) {
	result, err := linker.run(ctx, DirectionLink, spaceRaw, childRaw, suggested)
	linker.metrics.ObserveLink(DirectionLink.String(), outcome(result, err))
	return result, err
}

// Unlink removes the relationship between spaceRaw and childRaw by
// writing empty content to both sides.
func (linker *Linker) Unlink(ctx context.Context, spaceRaw, childRaw string) (*Result, error) {
	result, err := linker.run(ctx, DirectionUnlink, spaceRaw, childRaw, false)
	linker.metrics.ObserveLink(DirectionUnlink.String(), outcome(result, err))
	return result, err
}

func (linker *Linker) run(ctx context.Context, direction Direction, spaceRaw, childRaw string, suggested bool) (*Result, error) {
	spaceID, err := ref.ParseRoomID(spaceRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: space %q: %w", ErrMalformedRoomID, spaceRaw, err)
	}
	childID, err := ref.ParseRoomID(childRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: child %q: %w", ErrMalformedRoomID, childRaw, err)
	}
	if spaceID == childID {
		return nil, fmt.Errorf("%w: %s", ErrSelfLinkRejected, spaceID)
	}

	if err := linker.checkPermission(ctx, spaceID, schema.MatrixEventTypeSpaceChild); err != nil {
		return nil, err
	}
	if err := linker.checkPermission(ctx, childID, schema.MatrixEventTypeSpaceParent); err != nil {
		return nil, err
	}

	result := &Result{Direction: direction, SpaceID: spaceID, ChildID: childID}
	linker.snapshot(ctx, result)

	via, err := viaServer(childID, spaceID)
	if err != nil {
		return result, err
	}
	result.Via = via

	var spaceContent, childContent any = emptyContent, emptyContent
	if direction == DirectionLink {
		spaceContent = schema.SpaceChildContent{Via: []string{via.String()}, Suggested: suggested}
		childContent = schema.SpaceParentContent{Via: []string{via.String()}}
	}

	if _, err := linker.session.SendStateEvent(ctx, spaceID, schema.MatrixEventTypeSpaceChild, childID.String(), spaceContent); err != nil {
		return result, fmt.Errorf("%w: writing %s in %s: %w", ErrRemoteCallFailed, schema.MatrixEventTypeSpaceChild, spaceID, err)
	}
	result.SpaceWritten = true

	_, err = linker.session.SendStateEvent(ctx, childID, schema.MatrixEventTypeSpaceParent, spaceID.String(), childContent)
	if err == nil {
		result.ChildWritten = true
		return result, nil
	}
	if direction == DirectionUnlink && messaging.IsNotFound(err) {
		result.ChildAbsent = true
		return result, nil
	}

	linker.compensate(ctx, result)
	return result, fmt.Errorf("%w: writing %s in %s: %w", ErrRemoteCallFailed, schema.MatrixEventTypeSpaceParent, childID, err)
}

// checkPermission fails with ErrInsufficientPermission when the power
// levels of roomID are readable and deny the acting user eventType.
func (linker *Linker) checkPermission(ctx context.Context, roomID ref.RoomID, eventType ref.EventType) error {
	powerLevels, err := schema.ReadPowerLevels(ctx, linker.session, roomID)
	if err != nil {
		linker.logger.Warn("power levels unavailable, skipping pre-check",
			"room_id", roomID,
			"event_type", eventType,
			"error", err,
		)
		return nil
	}
	userID := linker.session.UserID().String()
	have, need := powerLevels.UserLevel(userID), powerLevels.StateLevel(eventType)
	if have < need {
		return fmt.Errorf("%w: %s has %d in %s, %s requires %d",
			ErrInsufficientPermission, userID, have, roomID, eventType, need)
	}
	return nil
}

// snapshot records the space-side content present before any write.
func (linker *Linker) snapshot(ctx context.Context, result *Result) {
	content, err := linker.session.GetStateEvent(ctx, result.SpaceID, schema.MatrixEventTypeSpaceChild, result.ChildID.String())
	switch {
	case err == nil:
		result.Prior = content
		result.PriorRead = true
	case messaging.IsNotFound(err):
		result.PriorRead = true
	default:
		linker.logger.Warn("prior space child state unreadable, rollback will clear it",
			"space_id", result.SpaceID,
			"child_id", result.ChildID,
			"error", err,
		)
	}
}

// compensate makes exactly one attempt to restore the space side.
func (linker *Linker) compensate(ctx context.Context, result *Result) {
	restore := emptyContent
	if len(result.Prior) > 0 {
		restore = result.Prior
	}
	_, err := linker.session.SendStateEvent(ctx, result.SpaceID, schema.MatrixEventTypeSpaceChild, result.ChildID.String(), restore)
	linker.metrics.ObserveCompensation(err == nil)
	if err != nil {
		result.CompensationErr = err
		linker.logger.Error("space link left half-written",
			"direction", result.Direction.String(),
			"space_id", result.SpaceID,
			"child_id", result.ChildID,
			"error", err,
		)
		return
	}
	result.Compensated = true
}

// viaServer picks the server advertised in both records: the child's
// domain, else the space's.
func viaServer(childID, spaceID ref.RoomID) (ref.ServerName, error) {
	for _, candidate := range []ref.RoomID{childID, spaceID} {
		if server := candidate.Server(); !server.IsZero() {
			return server, nil
		}
	}
	return ref.ServerName{}, fmt.Errorf("%w: neither %s nor %s carries a server", ErrNoViaServer, childID, spaceID)
}

func outcome(result *Result, err error) string {
	switch {
	case err == nil:
		return "ok"
	case result == nil:
		return "rejected"
	case result.Compensated:
		return "compensated"
	case result.SpaceWritten:
		return "partial"
	default:
		return "failed"
	}
}
