// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/warden/cmd/warden/cli"
	"github.com/bureau-foundation/warden/internal/admin"
	"github.com/bureau-foundation/warden/lib/config"
	"github.com/bureau-foundation/warden/lib/logging"
	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/messaging"
)

func execCommand() *cli.Command {
	var (
		configPath string
		room       string
	)
	return &cli.Command{
		Name:    "exec",
		Summary: "Run one admin command as the bot",
		Description: `Run a single admin command with the bot's account and print the reply.

The command is not subject to the admin list: whoever can read the
credential file already controls the bot. Commands that act on "the
current room" use --room.`,
		Usage: "warden exec [--config path] [--room room] <command> [args...]",
		Examples: []cli.Example{
			{Description: "List the rooms of a space", Command: "warden exec hierarchy '#lobby:example.org'"},
			{Description: "Ban a user from a room", Command: "warden exec --room '!ops:example.org' ban spammer \"link spam\""},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("exec", pflag.ContinueOnError)
			addConfigFlag(flagSet, &configPath)
			flagSet.StringVarP(&room, "room", "r", "", "room ID or alias the command acts in")
			// Everything after the command name belongs to the command.
			flagSet.SetInterspersed(false)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("command required; try \"warden exec help\"")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			logger, logCloser, err := logging.New(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			session, err := connect(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer session.Close()

			store, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(ctx, cfg.Admin.CommandTimeout)
			defer cancel()
			return execute(ctx, os.Stdout, os.Stderr, session, store, logger, room, cfg.Admin, args)
		},
	}
}

// execute runs one command as a local request and prints the reply.
// A failed command is reported on stderr and exits 1; any partial
// reply still goes to stdout.
func execute(ctx context.Context, stdout, stderr io.Writer, session messaging.Session, store memberstore.Store, logger *slog.Logger, room string, adminConfig config.AdminConfig, args []string) error {
	commands := admin.New(admin.Config{
		Session:     session,
		Store:       store,
		Logger:      logger,
		PurgeRate:   adminConfig.PurgeRate,
		AliasServer: adminConfig.AliasServer,
	})

	reply, err := commands.Execute(ctx, admin.Request{
		RoomID: room,
		Sender: session.UserID(),
		Args:   args,
		Local:  true,
	})
	if reply != "" {
		fmt.Fprintln(stdout, reply)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return &cli.ExitError{Code: 1}
	}
	return nil
}
