// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot connects the admin command table to a Matrix account.
//
// The bot long-polls /sync, accepts invites from trusted users, and
// treats any text message starting with the configured prefix as a
// command. Each command runs under its own timeout and is answered
// with a notice that replies to the command message. Reply
// transaction IDs are derived from the command's event ID, so a
// command redelivered after a restart produces the same transaction
// and the homeserver deduplicates the reply.
//
// History from before the bot started is skipped: the first sync only
// establishes the since token and handles pending invites.
package bot
