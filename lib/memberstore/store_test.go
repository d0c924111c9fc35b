// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memberstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newValkeyStore(t *testing.T, ttl time.Duration) (*Valkey, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	store, err := NewValkey(ValkeyConfig{Addr: mini.Addr(), DisableCache: true, TTL: ttl})
	if err != nil {
		t.Fatalf("NewValkey: %v", err)
	}
	t.Cleanup(store.Close)
	return store, mini
}

// backends runs test against every Store implementation.
func backends(t *testing.T, test func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		test(t, NewMemory())
	})
	t.Run("valkey", func(t *testing.T) {
		t.Parallel()
		store, _ := newValkeyStore(t, 0)
		test(t, store)
	})
}

var (
	summary = RoomSummary{
		RoomID:      "!room:example.org",
		Name:        "Ops",
		Topic:       "incident room",
		Encrypted:   true,
		MemberCount: 2,
		RefreshedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	members = []Member{
		{UserID: "@bob:example.org", DisplayName: "Bob", Membership: "join"},
		{UserID: "@alice:example.org", DisplayName: "Alice", AvatarURL: "mxc://example.org/a", Membership: "join"},
	}
)

func TestPutAndRead(t *testing.T) {
	t.Parallel()
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if err := store.PutRoom(ctx, summary, members); err != nil {
			t.Fatalf("PutRoom: %v", err)
		}

		room, err := store.Room(ctx, summary.RoomID)
		if err != nil {
			t.Fatalf("Room: %v", err)
		}
		if room.Name != "Ops" || !room.Encrypted || !room.RefreshedAt.Equal(summary.RefreshedAt) {
			t.Errorf("Room = %+v", room)
		}

		got, err := store.Members(ctx, summary.RoomID)
		if err != nil {
			t.Fatalf("Members: %v", err)
		}
		if len(got) != 2 || got[0].UserID != "@alice:example.org" || got[1].UserID != "@bob:example.org" {
			t.Errorf("Members = %+v, want alice then bob", got)
		}

		member, err := store.Member(ctx, summary.RoomID, "@alice:example.org")
		if err != nil {
			t.Fatalf("Member: %v", err)
		}
		if member.AvatarURL != "mxc://example.org/a" {
			t.Errorf("AvatarURL = %q", member.AvatarURL)
		}

		rooms, err := store.Rooms(ctx)
		if err != nil {
			t.Fatalf("Rooms: %v", err)
		}
		if len(rooms) != 1 || rooms[0] != summary.RoomID {
			t.Errorf("Rooms = %v", rooms)
		}
	})
}

func TestPutReplacesMembers(t *testing.T) {
	t.Parallel()
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if err := store.PutRoom(ctx, summary, members); err != nil {
			t.Fatal(err)
		}
		if err := store.PutRoom(ctx, summary, members[:1]); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Member(ctx, summary.RoomID, "@alice:example.org"); !errors.Is(err, ErrNotFound) {
			t.Errorf("departed member still cached: %v", err)
		}
	})
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if _, err := store.Room(ctx, "!missing:example.org"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Room error = %v", err)
		}
		if _, err := store.Members(ctx, "!missing:example.org"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Members error = %v", err)
		}
		if _, err := store.Member(ctx, "!missing:example.org", "@a:example.org"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Member error = %v", err)
		}
	})
}

func TestDeleteRoom(t *testing.T) {
	t.Parallel()
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if err := store.PutRoom(ctx, summary, members); err != nil {
			t.Fatal(err)
		}
		if err := store.DeleteRoom(ctx, summary.RoomID); err != nil {
			t.Fatalf("DeleteRoom: %v", err)
		}
		if _, err := store.Room(ctx, summary.RoomID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Room after delete: %v", err)
		}
		rooms, err := store.Rooms(ctx)
		if err != nil || len(rooms) != 0 {
			t.Errorf("Rooms after delete = %v, %v", rooms, err)
		}
	})
}

func TestValkeyTTLPrunesIndex(t *testing.T) {
	t.Parallel()

	store, mini := newValkeyStore(t, time.Minute)
	ctx := context.Background()
	if err := store.PutRoom(ctx, summary, members); err != nil {
		t.Fatal(err)
	}
	if ttl := mini.TTL("warden:room:" + summary.RoomID); ttl != time.Minute {
		t.Errorf("summary TTL = %v, want 1m", ttl)
	}

	mini.FastForward(2 * time.Minute)

	rooms, err := store.Rooms(ctx)
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("Rooms = %v, want expired room pruned", rooms)
	}
	if mini.Exists("warden:rooms") {
		members, _ := mini.Members("warden:rooms")
		if len(members) != 0 {
			t.Errorf("index still holds %v", members)
		}
	}
}

func TestValkeyPutAndDeleteKeys(t *testing.T) {
	t.Parallel()

	store, mini := newValkeyStore(t, 0)
	ctx := context.Background()
	roomKey := "warden:room:" + summary.RoomID
	membersKey := "warden:members:" + summary.RoomID

	if err := store.PutRoom(ctx, summary, members); err != nil {
		t.Fatalf("PutRoom: %v", err)
	}
	if !mini.Exists(roomKey) || !mini.Exists(membersKey) {
		t.Fatalf("keys after PutRoom: %v", mini.Keys())
	}
	if ttl := mini.TTL(roomKey); ttl != 0 {
		t.Errorf("summary TTL = %v, want none", ttl)
	}

	// A second put with no members must clear the old member hash.
	if err := store.PutRoom(ctx, summary, nil); err != nil {
		t.Fatalf("PutRoom without members: %v", err)
	}
	if mini.Exists(membersKey) {
		t.Error("member hash survived a put with no members")
	}

	if err := store.PutRoom(ctx, summary, members); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRoom(ctx, summary.RoomID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	for _, key := range []string{roomKey, membersKey} {
		if mini.Exists(key) {
			t.Errorf("%s survived DeleteRoom", key)
		}
	}
}

func TestNewValkeyRequiresAddress(t *testing.T) {
	t.Parallel()
	if _, err := NewValkey(ValkeyConfig{Addr: "  "}); err == nil {
		t.Error("expected error for empty address")
	}
}
