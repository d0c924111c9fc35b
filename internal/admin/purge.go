// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bureau-foundation/warden/lib/paginate"
	"github.com/bureau-foundation/warden/messaging"
)

const (
	defaultPurgeCount = 10
	maxPurgeCount     = 500

	// purgeMaxPages bounds the history scanned for the bot's own
	// messages in a busy room.
	purgeMaxPages = 20

	eventTypeRedaction = "m.room.redaction"
)

// handlePurge redacts the bot's most recent messages in a room,
// newest first. Redactions are rate limited and run one at a time.
func handlePurge(ctx context.Context, a *Admin, request Request, args []string) (string, error) {
	count := defaultPurgeCount
	explicitRoom := ""
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil {
			if parsed <= 0 || parsed > maxPurgeCount {
				return "", fmt.Errorf("%w: count must be between 1 and %d", ErrUsage, maxPurgeCount)
			}
			count = parsed
			explicitRoom = optionalArg(args, 1)
		} else {
			explicitRoom = args[0]
		}
	}
	roomID, err := a.resolveRoom(ctx, explicitRoom, request)
	if err != nil {
		return "", err
	}

	self := a.session.UserID()
	walker := paginate.Walker[messaging.Event]{
		Fetch: func(ctx context.Context, token string, pageSize int) (paginate.Page[messaging.Event], error) {
			response, err := a.session.RoomMessages(ctx, roomID, messaging.RoomMessagesOptions{
				From:      token,
				Direction: "b",
				Limit:     pageSize,
			})
			if err != nil {
				return paginate.Page[messaging.Event]{}, err
			}
			return paginate.Page[messaging.Event]{Items: response.Chunk, Next: response.End}, nil
		},
		Key: func(event messaging.Event) string { return event.EventID.String() },
		Keep: func(event messaging.Event) bool {
			return event.Sender == self &&
				event.StateKey == nil &&
				event.Type != eventTypeRedaction &&
				!event.Redacted()
		},
		MaxPages: purgeMaxPages,
	}
	events, stats, err := walker.Walk(ctx, count)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return fmt.Sprintf("No messages from %s found in the last %d events.", self, stats.Scanned), nil
	}

	var redacted, failed int
	for _, event := range events {
		if err := a.purgeLimiter.Wait(ctx); err != nil {
			return purgeSummary(redacted, failed) + fmt.Sprintf(" Stopped with %d left.", len(events)-redacted-failed), err
		}
		if _, err := a.session.Redact(ctx, roomID, event.EventID, "purged by admin"); err != nil {
			a.logger.Warn("redaction failed", "room_id", roomID, "event_id", event.EventID, "error", err)
			failed++
			continue
		}
		a.metrics.ObserveRedaction()
		redacted++
	}

	return purgeSummary(redacted, failed), nil
}

func purgeSummary(redacted, failed int) string {
	if failed > 0 {
		return fmt.Sprintf("Redacted %d messages, %d failed.", redacted, failed)
	}
	return fmt.Sprintf("Redacted %d messages.", redacted)
}
