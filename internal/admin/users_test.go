// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
)

func TestMembershipCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"kick", "spammer", "flooding", "the", "room"}, "kick !ops:example.org @spammer:example.org flooding the room"},
		{[]string{"ban", "@spammer:other.example"}, "ban !ops:example.org @spammer:other.example "},
		{[]string{"unban", "spammer"}, "unban !ops:example.org @spammer:example.org"},
		{[]string{"unban", "spammer", "!lobby:example.org"}, "unban !lobby:example.org @spammer:example.org"},
		{[]string{"invite", "alice:other.example"}, "invite !ops:example.org @alice:other.example"},
		{[]string{"invite", "@alice", "!lobby:example.org"}, "invite !lobby:example.org @alice:example.org"},
	}
	for _, test := range tests {
		t.Run(strings.Join(test.args, " "), func(t *testing.T) {
			t.Parallel()
			admin, session, _ := newTestAdmin(t)
			mustRun(t, admin, test.args...)
			assertCalls(t, session, test.want)
		})
	}
}

func TestKickRejectsRoomAsUser(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	_, err := run(t, admin, "kick", "#lobby:example.org")
	if !errors.Is(err, ref.ErrInvalidIdentifier) {
		t.Fatalf("error = %v, want ErrInvalidIdentifier", err)
	}
	assertCalls(t, session)
}

func TestIgnoreList(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	if reply := mustRun(t, admin, "ignorelist"); reply != "No ignored users." {
		t.Errorf("empty ignorelist = %q", reply)
	}

	mustRun(t, admin, "ignore", "zed")
	mustRun(t, admin, "ignore", "amy")
	if reply := mustRun(t, admin, "ignore", "amy"); !strings.Contains(reply, "already ignored") {
		t.Errorf("second ignore = %q", reply)
	}

	reply := mustRun(t, admin, "ignorelist")
	if !strings.Contains(reply, "- @amy:example.org\n- @zed:example.org") {
		t.Errorf("ignorelist = %q, want sorted users", reply)
	}

	mustRun(t, admin, "unignore", "zed")
	if reply := mustRun(t, admin, "unignore", "zed"); !strings.Contains(reply, "not ignored") {
		t.Errorf("second unignore = %q", reply)
	}

	content := string(session.accountData[schema.MatrixEventTypeIgnoredUserList])
	if content != `{"ignored_users":{"@amy:example.org":{}}}` {
		t.Errorf("account data = %s", content)
	}
}
