// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

func TestSetName(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	mustRun(t, admin, "setname", "Warden", "Bot")
	assertCalls(t, session, "displayname Warden Bot")
}

func TestSetAvatar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		reply   messaging.Event
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"mxc://example.org/abc"}, want: "avatar mxc://example.org/abc"},
		{name: "not mxc", args: []string{"https://example.org/a.png"}, wantErr: true},
		{
			name:  "reply to image",
			reply: messaging.Event{Type: schema.MatrixEventTypeMessage, Content: map[string]any{"msgtype": schema.MsgTypeImage, "url": "mxc://example.org/img"}},
			want:  "avatar mxc://example.org/img",
		},
		{
			name:  "reply to sticker",
			reply: messaging.Event{Type: schema.MatrixEventTypeSticker, Content: map[string]any{"url": "mxc://example.org/sticker"}},
			want:  "avatar mxc://example.org/sticker",
		},
		{
			name:    "reply to text",
			reply:   messaging.Event{Type: schema.MatrixEventTypeMessage, Content: map[string]any{"msgtype": schema.MsgTypeText, "body": "hi"}},
			wantErr: true,
		},
		{name: "nothing", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			admin, session, _ := newTestAdmin(t)
			request := Request{
				RoomID: opsRoom,
				Sender: ref.MustParseUserID("@op:example.org"),
				Args:   append([]string{"setavatar"}, test.args...),
			}
			if test.reply.Type != "" {
				session.events["$image"] = test.reply
				request.InReplyTo = ref.MustParseEventID("$image")
			}

			_, err := admin.Execute(context.Background(), request)
			if test.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Fatalf("error = %v, want ErrUsage", err)
				}
				assertCalls(t, session)
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			assertCalls(t, session, test.want)
		})
	}
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.presence = messaging.Presence{Presence: schema.PresenceOnline}

	if reply := mustRun(t, admin, "setstatus"); reply != "Presence: online" {
		t.Errorf("setstatus = %q", reply)
	}
	if reply := mustRun(t, admin, "setstatus", "unavailable", "at", "lunch"); reply != "Presence: unavailable (at lunch)" {
		t.Errorf("setstatus unavailable = %q", reply)
	}
	if _, err := run(t, admin, "setstatus", "asleep"); !errors.Is(err, ErrUsage) {
		t.Errorf("setstatus asleep error = %v", err)
	}
	assertCalls(t, session, "presence unavailable at lunch")
}

func TestStatusMessageKeepsPresence(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)
	session.presence = messaging.Presence{Presence: schema.PresenceUnavailable, StatusMsg: "old"}

	if reply := mustRun(t, admin, "statusmsg", "deploying"); reply != "Presence: unavailable (deploying)" {
		t.Errorf("statusmsg = %q", reply)
	}
	if reply := mustRun(t, admin, "statusmsg"); reply != "Status message cleared." {
		t.Errorf("statusmsg clear = %q", reply)
	}
	assertCalls(t, session, "presence unavailable deploying", "presence unavailable ")
}

func TestStatusMessageWithoutPresence(t *testing.T) {
	t.Parallel()
	admin, session, _ := newTestAdmin(t)

	mustRun(t, admin, "statusmsg", "hello")
	assertCalls(t, session, "presence online hello")
}
