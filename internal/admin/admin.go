// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/warden/lib/clock"
	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/lib/spacelink"
	"github.com/bureau-foundation/warden/messaging"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrNotAuthorized  = errors.New("not authorized")
)

// Request is one command invocation.
type Request struct {
	// RoomID is the room the command was sent in. Empty for commands
	// run from the local CLI without --room.
	RoomID string

	Sender ref.UserID

	// EventID is the command message itself.
	EventID ref.EventID

	// InReplyTo is the event the command message replies to, if any.
	// setavatar takes its image from it.
	InReplyTo ref.EventID

	// Args holds the command name followed by its arguments.
	Args []string

	// Local marks a request from the operator's own shell, which
	// bypasses the sender check.
	Local bool
}

// Config holds the dependencies of an Admin.
type Config struct {
	Session messaging.Session
	Store   memberstore.Store
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   clock.Clock

	// Admins may run every command regardless of power level.
	Admins []string

	// MinPowerLevel admits senders at or above this level in the
	// command's room. Zero disables the check.
	MinPowerLevel int

	// PurgeRate bounds redactions per second.
	PurgeRate float64

	// AliasServer completes bare aliases when the command has no room
	// to take a server name from. Empty means such aliases are
	// rejected; alias servers need not match the bot's homeserver.
	AliasServer string
}

// Admin executes commands against a Matrix session.
type Admin struct {
	session       messaging.Session
	store         memberstore.Store
	linker        *spacelink.Linker
	logger        *slog.Logger
	metrics       *metrics.Metrics
	clock         clock.Clock
	admins        map[string]struct{}
	minPowerLevel int
	aliasServer   string
	purgeLimiter  *rate.Limiter
}

// New creates an Admin. Session and Store are required.
func New(config Config) *Admin {
	if config.Session == nil {
		panic("admin: Session is required")
	}
	if config.Store == nil {
		panic("admin: Store is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	purgeRate := rate.Limit(config.PurgeRate)
	if config.PurgeRate <= 0 {
		purgeRate = rate.Inf
	}
	admins := make(map[string]struct{}, len(config.Admins))
	for _, userID := range config.Admins {
		admins[userID] = struct{}{}
	}

	return &Admin{
		session:       config.Session,
		store:         config.Store,
		linker:        spacelink.New(config.Session, logger, config.Metrics),
		logger:        logger,
		metrics:       config.Metrics,
		clock:         clk,
		admins:        admins,
		minPowerLevel: config.MinPowerLevel,
		aliasServer:   config.AliasServer,
		purgeLimiter:  rate.NewLimiter(purgeRate, 1),
	}
}

// commandDefinition describes one command: its usage line, a summary
// for help, the minimum number of arguments, and the handler.
type commandDefinition struct {
	usage   string
	summary string
	minArgs int
	handler func(ctx context.Context, a *Admin, request Request, args []string) (string, error)
}

// builtinCommands is populated in init because help reads it.
var builtinCommands map[string]commandDefinition

func init() {
	builtinCommands = map[string]commandDefinition{
		"kick":        {"kick <user> [reason...]", "remove a user from this room", 1, handleKick},
		"ban":         {"ban <user> [reason...]", "ban a user from this room", 1, handleBan},
		"unban":       {"unban <user> [room]", "lift a ban", 1, handleUnban},
		"invite":      {"invite <user> [room]", "invite a user", 1, handleInvite},
		"promote":     {"promote <user> [mod|admin|level] [room]", "raise a user's power level (default mod)", 1, handlePromote},
		"demote":      {"demote <user> [room]", "reset a user to power level 0", 1, handleDemote},
		"power":       {"power <user> <level> [room]", "set a user's power level", 2, handlePower},
		"admins":      {"admins [room]", "list admins and moderators", 0, handleAdmins},
		"whois":       {"whois <user>", "show profile, membership, and power level", 1, handleWhois},
		"search":      {"search <term> [limit]", "search the user directory", 1, handleSearch},
		"ignore":      {"ignore <user>", "hide a user's events from the bot", 1, handleIgnore},
		"unignore":    {"unignore <user>", "stop ignoring a user", 1, handleUnignore},
		"ignorelist":  {"ignorelist", "list ignored users", 0, handleIgnoreList},
		"createroom":  {"createroom <name> [public]", "create a room", 1, handleCreateRoom},
		"dm":          {"dm <user>", "open a direct chat with a user", 1, handleDirectMessage},
		"setname":     {"setname <name...>", "change the bot's display name", 1, handleSetName},
		"setavatar":   {"setavatar [mxc://...]", "change the bot's avatar (or reply to an image)", 0, handleSetAvatar},
		"setstatus":   {"setstatus [online|unavailable|offline] [message...]", "show or change the bot's presence", 0, handleSetStatus},
		"statusmsg":   {"statusmsg [message...]", "set or clear the bot's status message", 0, handleStatusMessage},
		"aliasset":    {"aliasset <alias> [room]", "point an alias at a room", 1, handleAliasSet},
		"aliasdel":    {"aliasdel <alias>", "delete an alias", 1, handleAliasDelete},
		"aliasget":    {"aliasget <alias>", "resolve an alias", 1, handleAliasGet},
		"publicrooms": {"publicrooms [server] [limit]", "list the public room directory", 0, handlePublicRooms},
		"forget":      {"forget [room]", "forget a room the bot has left", 0, handleForget},
		"knock":       {"knock <room> [reason...]", "request to join a room", 1, handleKnock},
		"upgrade":     {"upgrade <version> [room]", "upgrade a room to a new version", 1, handleUpgrade},
		"hierarchy":   {"hierarchy [room] [limit]", "list the rooms in a space", 0, handleHierarchy},
		"link":        {"link <space> <child> [suggested]", "add a room to a space", 2, handleLink},
		"unlink":      {"unlink <space> <child>", "remove a room from a space", 2, handleUnlink},
		"purge":       {"purge [count] [room]", "redact the bot's recent messages", 0, handlePurge},
		"roomrefresh": {"roomrefresh [room|all]", "refresh the cached room and member data", 0, handleRoomRefresh},
		"help":        {"help [command]", "list commands", 0, handleHelp},
	}
}

// Execute authorizes and runs request and returns the reply text. A
// command that fails partway may return a reply describing what it
// finished alongside the error.
func (a *Admin) Execute(ctx context.Context, request Request) (string, error) {
	if len(request.Args) == 0 {
		return "", fmt.Errorf("%w: no command given; try help", ErrUsage)
	}
	name := strings.ToLower(request.Args[0])
	definition, exists := builtinCommands[name]
	if !exists {
		return "", fmt.Errorf("%w %q; try help", ErrUnknownCommand, request.Args[0])
	}

	logger := a.logger.With(
		"command", name,
		"room_id", request.RoomID,
		"sender", request.Sender,
	)

	if !request.Local {
		if err := a.authorize(ctx, request); err != nil {
			logger.Warn("command rejected", "error", err)
			a.metrics.ObserveCommand(name, "denied", 0)
			return "", err
		}
	}

	args := request.Args[1:]
	if len(args) < definition.minArgs {
		return "", fmt.Errorf("%w: %s", ErrUsage, definition.usage)
	}

	start := a.clock.Now()
	reply, err := definition.handler(ctx, a, request, args)
	elapsed := a.clock.Now().Sub(start)
	if err != nil {
		logger.Error("command failed", "error", err, "duration", elapsed)
		a.metrics.ObserveCommand(name, "error", elapsed)
		return reply, fmt.Errorf("%s failed: %w", name, err)
	}
	logger.Info("command handled", "duration", elapsed)
	a.metrics.ObserveCommand(name, "ok", elapsed)
	return reply, nil
}

// authorize admits senders on the admin list, or at or above
// minPowerLevel in the room the command arrived in.
func (a *Admin) authorize(ctx context.Context, request Request) error {
	if _, ok := a.admins[request.Sender.String()]; ok {
		return nil
	}
	if a.minPowerLevel <= 0 || request.RoomID == "" {
		return fmt.Errorf("%w: %s is not an admin", ErrNotAuthorized, request.Sender)
	}
	roomID, err := ref.ParseRoomID(request.RoomID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	powerLevels, err := schema.ReadPowerLevels(ctx, a.session, roomID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	if level := powerLevels.UserLevel(request.Sender.String()); level < a.minPowerLevel {
		return fmt.Errorf("%w: %s has power level %d, %d required", ErrNotAuthorized, request.Sender, level, a.minPowerLevel)
	}
	return nil
}

// resolveUser qualifies operator input as a user ID, taking a missing
// server name from the command's room and then the bot's account.
func (a *Admin) resolveUser(raw string, request Request) (ref.UserID, error) {
	return ref.ResolveUserID(raw, request.RoomID, a.session.UserID().String())
}

// resolveRoom picks the target room: explicit when non-empty, else the
// command's room. Aliases are resolved through the directory.
func (a *Admin) resolveRoom(ctx context.Context, explicit string, request Request) (ref.RoomID, error) {
	raw, err := ref.ResolveTargetRoom(explicit, request.RoomID)
	if err != nil {
		return ref.RoomID{}, err
	}
	if strings.HasPrefix(raw, "#") {
		return a.resolveAliasToRoom(ctx, raw, request)
	}
	roomID, err := ref.ParseRoomID(raw)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: %w", ref.ErrInvalidIdentifier, err)
	}
	return roomID, nil
}

func (a *Admin) resolveAliasToRoom(ctx context.Context, raw string, request Request) (ref.RoomID, error) {
	alias, err := a.resolveAlias(raw, request)
	if err != nil {
		return ref.RoomID{}, err
	}
	resolved, err := a.session.ResolveAlias(ctx, alias)
	if err != nil {
		return ref.RoomID{}, err
	}
	return resolved.RoomID, nil
}

func handleHelp(_ context.Context, _ *Admin, _ Request, args []string) (string, error) {
	if len(args) > 0 {
		definition, exists := builtinCommands[strings.ToLower(args[0])]
		if !exists {
			return "", fmt.Errorf("%w %q", ErrUnknownCommand, args[0])
		}
		return fmt.Sprintf("`%s`\n\n%s", definition.usage, definition.summary), nil
	}

	names := make([]string, 0, len(builtinCommands))
	for name := range builtinCommands {
		names = append(names, name)
	}
	slices.Sort(names)

	var builder strings.Builder
	builder.WriteString("**Commands**\n\n")
	for _, name := range names {
		definition := builtinCommands[name]
		fmt.Fprintf(&builder, "- `%s` %s\n", definition.usage, definition.summary)
	}
	return builder.String(), nil
}
