// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Warden is a Matrix admin bot. "warden run" connects to the
// homeserver and answers prefixed commands in the rooms it has joined;
// "warden exec" runs a single command from the shell.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/warden/lib/process"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root().Execute(ctx, os.Args[1:])
	stop()
	process.Exit(err)
}
