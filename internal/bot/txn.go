// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/warden/lib/ref"
)

// replyDomainKey separates reply transaction IDs from any other use of
// BLAKE3 over event IDs. ASCII "warden.reply", zero-padded.
var replyDomainKey = [32]byte{
	'w', 'a', 'r', 'd', 'e', 'n', '.', 'r', 'e', 'p', 'l', 'y',
}

// replyTransactionID is the transaction ID for the reply to eventID.
func replyTransactionID(eventID ref.EventID) string {
	hasher, err := blake3.NewKeyed(replyDomainKey[:])
	if err != nil {
		panic("bot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(eventID.String()))
	return "warden-reply-" + hex.EncodeToString(hasher.Sum(nil)[:16])
}
