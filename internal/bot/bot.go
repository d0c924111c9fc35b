// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/warden/internal/admin"
	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

// syncFilter limits timelines to messages and drops presence, account
// data, and ephemeral events. Invite state is unaffected by filters.
const syncFilter = `{"presence":{"types":[]},"account_data":{"types":[]},` +
	`"room":{"timeline":{"types":["m.room.message"]},"state":{"types":[]},"ephemeral":{"types":[]},"account_data":{"types":[]}}}`

// SyncObserver is told about every successful sync.
// httpserver.Health implements it.
type SyncObserver interface {
	MarkSynced()
}

// Config configures a Bot.
type Config struct {
	Session messaging.Session
	Admin   *admin.Admin

	// Prefix marks a message as a command.
	Prefix string

	// AutoJoinFrom lists the users whose invites are accepted.
	AutoJoinFrom []string

	// CommandTimeout bounds each command. Default: 2 minutes.
	CommandTimeout time.Duration

	// SyncTimeout is the long-poll timeout. Default: 30 seconds.
	SyncTimeout time.Duration

	// MaxBackoff caps the retry delay after a failed sync. Default: 5
	// minutes.
	MaxBackoff time.Duration

	Observer SyncObserver
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Bot runs the sync loop and dispatches commands.
type Bot struct {
	session        messaging.Session
	admin          *admin.Admin
	self           ref.UserID
	prefix         string
	autoJoin       map[string]struct{}
	commandTimeout time.Duration
	syncTimeout    time.Duration
	maxBackoff     time.Duration
	observer       SyncObserver
	metrics        *metrics.Metrics
	clock          clock.Clock
	logger         *slog.Logger
}

// New creates a Bot. Session and Admin are required.
func New(config Config) (*Bot, error) {
	if config.Session == nil || config.Admin == nil {
		return nil, fmt.Errorf("bot: Session and Admin are required")
	}
	if config.Prefix == "" {
		return nil, fmt.Errorf("bot: Prefix is required")
	}
	bot := &Bot{
		session:        config.Session,
		admin:          config.Admin,
		self:           config.Session.UserID(),
		prefix:         config.Prefix,
		autoJoin:       make(map[string]struct{}, len(config.AutoJoinFrom)),
		commandTimeout: config.CommandTimeout,
		syncTimeout:    config.SyncTimeout,
		maxBackoff:     config.MaxBackoff,
		observer:       config.Observer,
		metrics:        config.Metrics,
		clock:          config.Clock,
		logger:         config.Logger,
	}
	for _, userID := range config.AutoJoinFrom {
		bot.autoJoin[userID] = struct{}{}
	}
	if bot.commandTimeout <= 0 {
		bot.commandTimeout = 2 * time.Minute
	}
	if bot.syncTimeout <= 0 {
		bot.syncTimeout = 30 * time.Second
	}
	if bot.maxBackoff <= 0 {
		bot.maxBackoff = 5 * time.Minute
	}
	if bot.clock == nil {
		bot.clock = clock.Real()
	}
	if bot.logger == nil {
		bot.logger = slog.New(slog.DiscardHandler)
	}
	return bot, nil
}

// Run syncs until ctx is cancelled. Failed syncs are retried with
// exponential backoff from one second to MaxBackoff. The first
// successful sync only handles invites; its timeline is history.
func (b *Bot) Run(ctx context.Context) error {
	var since string
	backoff := time.Second
	initial := true

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		options := messaging.SyncOptions{Since: since, Filter: syncFilter}
		if !initial {
			options.Timeout = int(b.syncTimeout.Milliseconds())
			options.SetTimeout = true
		}

		response, err := b.session.Sync(ctx, options)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.metrics.ObserveSyncFailure()
			b.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-b.clock.After(backoff):
			}
			backoff = min(backoff*2, b.maxBackoff)
			continue
		}

		backoff = time.Second
		since = response.NextBatch
		if b.observer != nil {
			b.observer.MarkSynced()
		}

		if initial {
			b.logger.Info("initial sync complete, skipping history",
				"joined_rooms", len(response.Rooms.Join),
				"pending_invites", len(response.Rooms.Invite),
			)
			b.acceptInvites(ctx, response.Rooms.Invite)
			initial = false
			continue
		}
		b.HandleSync(ctx, response)
	}
}

// HandleSync processes one incremental sync response: invites first,
// then commands in each joined room's timeline.
func (b *Bot) HandleSync(ctx context.Context, response *messaging.SyncResponse) {
	b.acceptInvites(ctx, response.Rooms.Invite)
	for roomID, room := range response.Rooms.Join {
		for index := range room.Timeline.Events {
			if ctx.Err() != nil {
				return
			}
			b.handleEvent(ctx, roomID, &room.Timeline.Events[index])
		}
	}
}

// acceptInvites joins rooms whose inviter is trusted and declines the
// rest.
func (b *Bot) acceptInvites(ctx context.Context, invites map[ref.RoomID]messaging.InvitedRoom) {
	for roomID, invite := range invites {
		inviter := b.inviter(invite)
		logger := b.logger.With("room_id", roomID, "inviter", inviter)
		if _, trusted := b.autoJoin[inviter]; !trusted {
			logger.Info("declining invite from untrusted user")
			if err := b.session.LeaveRoom(ctx, roomID); err != nil {
				logger.Warn("declining invite failed", "error", err)
			}
			continue
		}
		logger.Info("accepting room invite")
		if _, err := b.session.JoinRoom(ctx, roomID); err != nil {
			logger.Error("failed to accept room invite", "error", err)
		}
	}
}

// inviter finds the sender of the bot's own invite membership event.
func (b *Bot) inviter(invite messaging.InvitedRoom) string {
	for _, event := range invite.InviteState.Events {
		if event.Type != schema.MatrixEventTypeMember || event.StateKey == nil {
			continue
		}
		if *event.StateKey == b.self.String() && event.ContentString("membership") == schema.MembershipInvite {
			return event.Sender.String()
		}
	}
	return ""
}

func (b *Bot) handleEvent(ctx context.Context, roomID ref.RoomID, event *messaging.Event) {
	if event.Type != schema.MatrixEventTypeMessage || event.Sender == b.self {
		return
	}
	if event.ContentString("msgtype") != schema.MsgTypeText {
		return
	}

	args, isCommand, err := admin.ParseCommandLine(event.ContentString("body"), b.prefix)
	if !isCommand {
		return
	}
	if err != nil {
		b.reply(ctx, roomID, event.EventID, "Error: "+err.Error())
		return
	}

	request := admin.Request{
		RoomID:    roomID.String(),
		Sender:    event.Sender,
		EventID:   event.EventID,
		InReplyTo: replyTarget(event),
		Args:      args,
	}
	commandCtx, cancel := context.WithTimeout(ctx, b.commandTimeout)
	reply, err := b.admin.Execute(commandCtx, request)
	cancel()
	if err != nil {
		if reply != "" {
			reply += "\n"
		}
		reply += "Error: " + err.Error()
	}
	b.reply(ctx, roomID, event.EventID, reply)
}

// replyTarget reads m.relates_to.m.in_reply_to.event_id.
func replyTarget(event *messaging.Event) ref.EventID {
	relatesTo, _ := event.Content["m.relates_to"].(map[string]any)
	inReplyTo, _ := relatesTo["m.in_reply_to"].(map[string]any)
	raw, _ := inReplyTo["event_id"].(string)
	eventID, err := ref.ParseEventID(raw)
	if err != nil {
		return ref.EventID{}
	}
	return eventID
}

func (b *Bot) reply(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, text string) {
	content := messaging.NewNotice(text).InReplyTo(eventID)
	if _, err := b.session.SendEventWithTransaction(ctx, roomID, schema.MatrixEventTypeMessage, replyTransactionID(eventID), content); err != nil {
		b.logger.Error("sending reply failed", "room_id", roomID, "event_id", eventID, "error", err)
	}
}
