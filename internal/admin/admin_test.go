// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/metrics"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
)

func TestExecuteUnknownCommand(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	_, err := run(t, admin, "frobnicate")
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("error = %v, want ErrUnknownCommand", err)
	}
	assertCalls(t, session)
}

func TestExecuteCommandNameIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	mustRun(t, admin, "KICK", "spammer")
	assertCalls(t, session, "kick !ops:example.org @spammer:example.org ")
}

func TestExecuteUsage(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	_, err := run(t, admin, "power", "alice")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
	if !strings.Contains(err.Error(), "power <user> <level> [room]") {
		t.Errorf("error %q does not show usage", err)
	}
	assertCalls(t, session)
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sender   string
		room     string
		local    bool
		minLevel int
		wantErr  bool
	}{
		{name: "admin list", sender: "@op:example.org", room: opsRoom},
		{name: "admin list without room", sender: "@op:example.org"},
		{name: "power level at minimum", sender: "@mod:example.org", room: opsRoom, minLevel: 50},
		{name: "power level below minimum", sender: "@mod:example.org", room: opsRoom, minLevel: 100, wantErr: true},
		{name: "power check disabled", sender: "@mod:example.org", room: opsRoom, wantErr: true},
		{name: "stranger", sender: "@guest:example.org", room: opsRoom, minLevel: 50, wantErr: true},
		{name: "no room for power check", sender: "@mod:example.org", minLevel: 50, wantErr: true},
		{name: "local bypasses", sender: "@guest:example.org", local: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			session := newFakeSession()
			session.setPowerLevels(t, opsRoom, schema.PowerLevels{Users: map[string]int{"@mod:example.org": 50}})
			admin := New(Config{
				Session:       session,
				Store:         memberstore.NewMemory(),
				Admins:        []string{"@op:example.org"},
				MinPowerLevel: test.minLevel,
			})

			_, err := admin.Execute(context.Background(), Request{
				RoomID: test.room,
				Sender: ref.MustParseUserID(test.sender),
				Args:   []string{"help"},
				Local:  test.local,
			})
			if test.wantErr != (err != nil) {
				t.Fatalf("error = %v, wantErr %v", err, test.wantErr)
			}
			if err != nil && !errors.Is(err, ErrNotAuthorized) {
				t.Errorf("error = %v, want ErrNotAuthorized", err)
			}
		})
	}
}

func TestExecuteRecordsMetrics(t *testing.T) {
	t.Parallel()
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	admin := New(Config{
		Session: newFakeSession(),
		Store:   memberstore.NewMemory(),
		Metrics: recorder,
		Admins:  []string{"@op:example.org"},
	})

	mustRun(t, admin, "help")
	if _, err := run(t, admin, "kick", "!notauser:example.org"); err == nil {
		t.Fatal("kicking a room ID succeeded")
	}
	_, _ = admin.Execute(context.Background(), Request{
		RoomID: opsRoom,
		Sender: ref.MustParseUserID("@guest:example.org"),
		Args:   []string{"help"},
	})

	count, err := testutil.GatherAndCount(registry, "warden_commands_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("command series = %d, want 3 (help/ok, kick/error, help/denied)", count)
	}
}

func TestResolveRoom(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.aliases["#lobby:example.org"] = ref.MustParseRoomID("!lobby:example.org")
	request := Request{RoomID: opsRoom}

	tests := []struct {
		explicit string
		want     string
		wantErr  error
	}{
		{explicit: "", want: opsRoom},
		{explicit: "!other:example.org", want: "!other:example.org"},
		{explicit: "#lobby:example.org", want: "!lobby:example.org"},
		{explicit: "#lobby", want: "!lobby:example.org"},
		{explicit: "not-a-room", wantErr: ref.ErrInvalidIdentifier},
	}
	for _, test := range tests {
		got, err := admin.resolveRoom(context.Background(), test.explicit, request)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("resolveRoom(%q) error = %v, want %v", test.explicit, err, test.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveRoom(%q): %v", test.explicit, err)
			continue
		}
		if got.String() != test.want {
			t.Errorf("resolveRoom(%q) = %s, want %s", test.explicit, got, test.want)
		}
	}

	if _, err := admin.resolveRoom(context.Background(), "", Request{}); !errors.Is(err, ref.ErrNoRoomContext) {
		t.Errorf("resolveRoom without context error = %v, want ErrNoRoomContext", err)
	}
}

func TestHelp(t *testing.T) {
	t.Parallel()
	admin, _, _ := newTestAdmin(t)

	reply := mustRun(t, admin, "help")
	for name, definition := range builtinCommands {
		if !strings.Contains(reply, definition.usage) {
			t.Errorf("help is missing %s", name)
		}
	}

	reply = mustRun(t, admin, "help", "link")
	if !strings.Contains(reply, "link <space> <child> [suggested]") {
		t.Errorf("help link = %q", reply)
	}

	if _, err := run(t, admin, "help", "nope"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("help nope error = %v", err)
	}
}
