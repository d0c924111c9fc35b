// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/warden/cmd/warden/cli"
	"github.com/bureau-foundation/warden/lib/config"
	"github.com/bureau-foundation/warden/lib/version"
	"github.com/bureau-foundation/warden/messaging"
)

func loginCommand() *cli.Command {
	var (
		homeserver     string
		username       string
		credentialFile string
	)
	return &cli.Command{
		Name:    "login",
		Summary: "Log the bot account in and write its credential file",
		Description: `Log in with a password and save the resulting access token.

The password is read from the terminal without echo, or from stdin
when stdin is not a terminal. The credential file is written with mode
0600 and replaces any existing file.`,
		Usage: "warden login --homeserver URL --user name [--credentials path]",
		Examples: []cli.Example{
			{
				Description: "Log in and write the default credential file",
				Command:     "warden login --homeserver https://matrix.example.org --user warden",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.StringVar(&homeserver, "homeserver", "", "homeserver base URL (required)")
			flagSet.StringVarP(&username, "user", "u", "", "localpart or full user ID of the bot account (required)")
			flagSet.StringVar(&credentialFile, "credentials", config.Default().Matrix.CredentialFile, "where to write the credential file")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if homeserver == "" || username == "" {
				return fmt.Errorf("--homeserver and --user are required")
			}
			return login(ctx, homeserver, username, credentialFile)
		},
	}
}

func login(ctx context.Context, homeserver, username, credentialFile string) error {
	password, err := cli.ReadSecret("Password: ", os.Stdin)
	if err != nil {
		return err
	}
	defer password.Close()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: homeserver,
		Logger:        slog.New(slog.DiscardHandler),
		UserAgent:     version.UserAgent(),
	})
	if err != nil {
		return err
	}
	session, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := config.WriteCredentials(credentialFile, config.Credentials{
		HomeserverURL: homeserver,
		UserID:        session.UserID().String(),
		AccessToken:   session.AccessToken(),
		DeviceID:      session.DeviceID(),
	}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Logged in as %s; credentials written to %s\n", session.UserID(), credentialFile)
	return nil
}
