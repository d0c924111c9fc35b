// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/warden/cmd/warden/cli"
	"github.com/bureau-foundation/warden/lib/version"
)

func root() *cli.Command {
	return &cli.Command{
		Name: "warden",
		Description: `Warden: a Matrix room administration bot.

Moderates rooms, manages power levels, aliases and space links, and
keeps a cache of room membership, driven by chat commands such as
"!admin kick @spammer:example.org".`,
		Subcommands: []*cli.Command{
			runCommand(),
			execCommand(),
			loginCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Printf("warden %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
