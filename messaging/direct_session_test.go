// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
)

func TestBanUser(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("method = %s", request.Method)
		}
		if request.URL.EscapedPath() != "/_matrix/client/v3/rooms/%21room:test.local/ban" {
			t.Errorf("path = %s", request.URL.EscapedPath())
		}
		var body map[string]string
		json.NewDecoder(request.Body).Decode(&body)
		if body["user_id"] != "@spam:test.local" || body["reason"] != "spam" {
			t.Errorf("body = %v", body)
		}
		writeJSON(writer, http.StatusOK, map[string]any{})
	})

	err := session.BanUser(context.Background(), ref.MustParseRoomID("!room:test.local"), ref.MustParseUserID("@spam:test.local"), "spam")
	if err != nil {
		t.Fatalf("BanUser: %v", err)
	}
}

func TestSendStateEventPath(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			t.Errorf("method = %s", request.Method)
		}
		want := "/_matrix/client/v3/rooms/%21space:test.local/state/m.space.child/%21child:test.local"
		if request.URL.EscapedPath() != want {
			t.Errorf("path = %s, want %s", request.URL.EscapedPath(), want)
		}
		var content schema.SpaceChildContent
		json.NewDecoder(request.Body).Decode(&content)
		if len(content.Via) != 1 || content.Via[0] != "test.local" || !content.Suggested {
			t.Errorf("content = %+v", content)
		}
		writeJSON(writer, http.StatusOK, map[string]string{"event_id": "$state"})
	})

	eventID, err := session.SendStateEvent(context.Background(),
		ref.MustParseRoomID("!space:test.local"), schema.MatrixEventTypeSpaceChild, "!child:test.local",
		schema.SpaceChildContent{Via: []string{"test.local"}, Suggested: true})
	if err != nil {
		t.Fatalf("SendStateEvent: %v", err)
	}
	if eventID.String() != "$state" {
		t.Errorf("event ID = %s", eventID)
	}
}

func TestRedactUsesTransactionPut(t *testing.T) {
	var paths []string
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			t.Errorf("method = %s", request.Method)
		}
		paths = append(paths, request.URL.EscapedPath())
		writeJSON(writer, http.StatusOK, map[string]string{"event_id": "$redaction"})
	})

	roomID := ref.MustParseRoomID("!room:test.local")
	for range 2 {
		if _, err := session.Redact(context.Background(), roomID, ref.MustParseEventID("$target"), "cleanup"); err != nil {
			t.Fatalf("Redact: %v", err)
		}
	}
	if len(paths) != 2 || paths[0] == paths[1] {
		t.Fatalf("each redaction needs a distinct transaction ID: %v", paths)
	}
	if !strings.HasPrefix(paths[0], "/_matrix/client/v3/rooms/%21room:test.local/redact/$target/warden-") {
		t.Errorf("path = %s", paths[0])
	}
}

func TestRoomHierarchyQuery(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v1/rooms/!space:test.local/hierarchy" {
			t.Errorf("path = %s", request.URL.Path)
		}
		query := request.URL.Query()
		if query.Get("from") != "tok" || query.Get("limit") != "100" {
			t.Errorf("query = %v", query)
		}
		writeJSON(writer, http.StatusOK, map[string]any{
			"rooms": []map[string]any{
				{"room_id": "!space:test.local", "name": "Space", "num_joined_members": 3, "children_state": []any{}},
				{"room_id": "!child:test.local", "canonical_alias": "#child:test.local"},
			},
			"next_batch": "tok2",
		})
	})

	response, err := session.RoomHierarchy(context.Background(), ref.MustParseRoomID("!space:test.local"), HierarchyOptions{From: "tok", Limit: 100})
	if err != nil {
		t.Fatalf("RoomHierarchy: %v", err)
	}
	if len(response.Rooms) != 2 || response.NextBatch != "tok2" {
		t.Fatalf("response = %+v", response)
	}
	if response.Rooms[1].DisplayName() != "#child:test.local" {
		t.Errorf("DisplayName = %q", response.Rooms[1].DisplayName())
	}
}

func TestGetRoomMembersSkipsInvalid(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{
			"chunk": []map[string]any{
				{"type": "m.room.member", "state_key": "@a:test.local", "content": map[string]any{"membership": "join", "displayname": "A"}},
				{"type": "m.room.member", "state_key": "garbage", "content": map[string]any{"membership": "join"}},
				{"type": "m.room.member", "state_key": "@b:test.local", "content": map[string]any{"membership": "leave"}},
			},
		})
	})

	members, err := session.GetRoomMembers(context.Background(), ref.MustParseRoomID("!room:test.local"))
	if err != nil {
		t.Fatalf("GetRoomMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].DisplayName != "A" || members[1].Membership != "leave" {
		t.Errorf("members = %+v", members)
	}
}

func TestResolveAlias(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.EscapedPath() != "/_matrix/client/v3/directory/room/%23general:test.local" {
			t.Errorf("path = %s", request.URL.EscapedPath())
		}
		writeJSON(writer, http.StatusOK, map[string]any{"room_id": "!room:test.local", "servers": []string{"test.local", "other.org"}})
	})

	response, err := session.ResolveAlias(context.Background(), ref.MustParseRoomAlias("#general:test.local"))
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if response.RoomID.String() != "!room:test.local" || len(response.Servers) != 2 {
		t.Errorf("response = %+v", response)
	}
}

func TestAccountDataNotFound(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/user/@bot:test.local/account_data/m.ignored_user_list" {
			t.Errorf("path = %s", request.URL.Path)
		}
		writeJSON(writer, http.StatusNotFound, map[string]string{"errcode": ErrCodeNotFound, "error": "no data"})
	})

	_, err := session.GetAccountData(context.Background(), schema.MatrixEventTypeIgnoredUserList)
	if !IsMatrixError(err, ErrCodeNotFound) {
		t.Fatalf("error = %v, want M_NOT_FOUND", err)
	}
}

func TestGetState(t *testing.T) {
	session := newTestSession(t, func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]string{"name": "General"})
	})

	content, err := GetState[schema.RoomNameContent](context.Background(), session, ref.MustParseRoomID("!room:test.local"), schema.MatrixEventTypeName, "")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if content.Name != "General" {
		t.Errorf("Name = %q", content.Name)
	}
}
