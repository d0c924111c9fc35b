// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package admin implements the warden's room administration commands.
//
// A command arrives as a line of text ("kick @spammer:example.org
// flooding"), is split by [Tokenize], authorized against the admin list
// or the sender's power level, and dispatched through a fixed command
// table. Each handler returns a markdown reply for the operator; errors
// are reported as a single line naming the command.
//
// Commands act as the bot's own Matrix account. Operator-typed
// identifiers go through the resolvers in lib/ref, so "alice" in a room
// on example.org means @alice:example.org. Space relationships go
// through lib/spacelink, and listing commands walk paginated endpoints
// with lib/paginate.
package admin
