// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/warden/lib/schema"
)

func TestPromote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		room      string
		wantLevel int
	}{
		{name: "default role", args: []string{"promote", "alice"}, room: opsRoom, wantLevel: 50},
		{name: "admin role", args: []string{"promote", "alice", "admin"}, room: opsRoom, wantLevel: 100},
		{name: "numeric level", args: []string{"promote", "alice", "75"}, room: opsRoom, wantLevel: 75},
		{name: "room only", args: []string{"promote", "alice", "!lobby:example.org"}, room: "!lobby:example.org", wantLevel: 50},
		{name: "role and room", args: []string{"promote", "alice", "owner", "!lobby:example.org"}, room: "!lobby:example.org", wantLevel: 100},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			admin, session, _ := newTestAdmin(t)
			session.setPowerLevels(t, opsRoom, schema.PowerLevels{})
			session.setPowerLevels(t, "!lobby:example.org", schema.PowerLevels{})

			mustRun(t, admin, test.args...)
			powerLevels := session.powerLevels(t, test.room)
			if got := powerLevels.UserLevel("@alice:example.org"); got != test.wantLevel {
				t.Errorf("level = %d, want %d", got, test.wantLevel)
			}
		})
	}
}

func TestPromoteRejectsUnknownRole(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.setPowerLevels(t, opsRoom, schema.PowerLevels{})

	_, err := run(t, admin, "promote", "alice", "wizard")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
	assertCalls(t, session)
}

func TestDemoteAndPower(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.setPowerLevels(t, opsRoom, schema.PowerLevels{Users: map[string]int{
		"@alice:example.org": 100,
		"@bob:example.org":   50,
	}})

	mustRun(t, admin, "demote", "alice")
	mustRun(t, admin, "power", "bob", "admin")

	powerLevels := session.powerLevels(t, opsRoom)
	if _, present := powerLevels.Users["@alice:example.org"]; present {
		t.Errorf("demoted user still has an explicit entry: %v", powerLevels.Users)
	}
	if got := powerLevels.UserLevel("@bob:example.org"); got != 100 {
		t.Errorf("bob level = %d, want 100", got)
	}

	if _, err := run(t, admin, "power", "bob", "lots"); !errors.Is(err, ErrUsage) {
		t.Errorf("power with bad level error = %v, want ErrUsage", err)
	}
}

func TestAdmins(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.setPowerLevels(t, opsRoom, schema.PowerLevels{Users: map[string]int{
		"@zoe:example.org":    100,
		"@amy:example.org":    100,
		"@mod:example.org":    60,
		"@helper:example.org": 50,
		"@user:example.org":   10,
	}})

	reply := mustRun(t, admin, "admins")
	want := "**Admins**\n\n- @amy:example.org (100)\n- @zoe:example.org (100)\n\n" +
		"**Moderators**\n\n- @mod:example.org (60)\n- @helper:example.org (50)"
	if reply != want {
		t.Errorf("admins =\n%s\nwant\n%s", reply, want)
	}
	if strings.Contains(reply, "@user:example.org") {
		t.Error("regular user listed")
	}

	session.setPowerLevels(t, "!empty:example.org", schema.PowerLevels{})
	if reply := mustRun(t, admin, "admins", "!empty:example.org"); !strings.HasPrefix(reply, "No admins") {
		t.Errorf("empty room = %q", reply)
	}
}
