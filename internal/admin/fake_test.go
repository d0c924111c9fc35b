// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/warden/lib/memberstore"
	"github.com/bureau-foundation/warden/lib/ref"
	"github.com/bureau-foundation/warden/lib/schema"
	"github.com/bureau-foundation/warden/messaging"
)

const (
	botID  = "@warden:example.org"
	opsRoom = "!ops:example.org"
)

type stateKey struct {
	room      string
	eventType ref.EventType
	key       string
}

// fakeSession is an in-memory homeserver for one bot account. Methods
// not implemented here fall through to the nil embedded Session and
// panic, which flags unexpected calls.
type fakeSession struct {
	messaging.Session

	mu          sync.Mutex
	state       map[stateKey]json.RawMessage
	stateErrors map[stateKey]error
	accountData map[ref.EventType]json.RawMessage
	aliases     map[string]ref.RoomID
	members     map[string][]messaging.RoomMember
	roomState   map[string][]messaging.Event
	events      map[string]messaging.Event
	profiles    map[string]messaging.Profile
	presence    messaging.Presence
	joined      []ref.RoomID
	directory   []messaging.UserDirectoryEntry

	// messagePages and hierarchyPages are keyed by pagination token.
	messagePages   map[string]messaging.RoomMessagesResponse
	hierarchyPages map[string]messaging.HierarchyResponse
	redactErrors   map[string]error
	stateFailures  map[string]error
	memberFailures map[string]error

	// refreshLog records GetRoomMembers and GetRoomState in call order.
	refreshLog []string

	calls []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state:          make(map[stateKey]json.RawMessage),
		stateErrors:    make(map[stateKey]error),
		accountData:    make(map[ref.EventType]json.RawMessage),
		aliases:        make(map[string]ref.RoomID),
		members:        make(map[string][]messaging.RoomMember),
		roomState:      make(map[string][]messaging.Event),
		events:         make(map[string]messaging.Event),
		profiles:       make(map[string]messaging.Profile),
		messagePages:   make(map[string]messaging.RoomMessagesResponse),
		hierarchyPages: make(map[string]messaging.HierarchyResponse),
		redactErrors:   make(map[string]error),
		stateFailures:  make(map[string]error),
		memberFailures: make(map[string]error),
	}
}

func notFound() error {
	return &messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: http.StatusNotFound}
}

func (f *fakeSession) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSession) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// setPowerLevels stores power levels for a room.
func (f *fakeSession) setPowerLevels(t *testing.T, room string, powerLevels schema.PowerLevels) {
	t.Helper()
	raw, err := json.Marshal(powerLevels)
	if err != nil {
		t.Fatal(err)
	}
	f.state[stateKey{room, schema.MatrixEventTypePowerLevels, ""}] = raw
}

func (f *fakeSession) powerLevels(t *testing.T, room string) schema.PowerLevels {
	t.Helper()
	var powerLevels schema.PowerLevels
	raw, ok := f.state[stateKey{room, schema.MatrixEventTypePowerLevels, ""}]
	if !ok {
		t.Fatalf("no power levels in %s", room)
	}
	if err := json.Unmarshal(raw, &powerLevels); err != nil {
		t.Fatal(err)
	}
	return powerLevels
}

func (f *fakeSession) UserID() ref.UserID { return ref.MustParseUserID(botID) }

func (f *fakeSession) GetStateEvent(_ context.Context, room ref.RoomID, eventType ref.EventType, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := stateKey{room.String(), eventType, key}
	if err := f.stateErrors[k]; err != nil {
		return nil, err
	}
	content, ok := f.state[k]
	if !ok {
		return nil, notFound()
	}
	return content, nil
}

func (f *fakeSession) SendStateEvent(_ context.Context, room ref.RoomID, eventType ref.EventType, key string, content any) (ref.EventID, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return ref.EventID{}, err
	}
	f.record("state %s %s %s %s", room, eventType, key, raw)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[stateKey{room.String(), eventType, key}] = raw
	return ref.MustParseEventID("$state"), nil
}

func (f *fakeSession) KickUser(_ context.Context, room ref.RoomID, user ref.UserID, reason string) error {
	f.record("kick %s %s %s", room, user, reason)
	return nil
}

func (f *fakeSession) BanUser(_ context.Context, room ref.RoomID, user ref.UserID, reason string) error {
	f.record("ban %s %s %s", room, user, reason)
	return nil
}

func (f *fakeSession) UnbanUser(_ context.Context, room ref.RoomID, user ref.UserID) error {
	f.record("unban %s %s", room, user)
	return nil
}

func (f *fakeSession) InviteUser(_ context.Context, room ref.RoomID, user ref.UserID) error {
	f.record("invite %s %s", room, user)
	return nil
}

func (f *fakeSession) GetAccountData(_ context.Context, eventType ref.EventType) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.accountData[eventType]
	if !ok {
		return nil, notFound()
	}
	return content, nil
}

func (f *fakeSession) SetAccountData(_ context.Context, eventType ref.EventType, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	f.record("account_data %s %s", eventType, raw)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accountData[eventType] = raw
	return nil
}

func (f *fakeSession) ResolveAlias(_ context.Context, alias ref.RoomAlias) (*messaging.ResolveAliasResponse, error) {
	f.record("resolve %s", alias)
	room, ok := f.aliases[alias.String()]
	if !ok {
		return nil, notFound()
	}
	return &messaging.ResolveAliasResponse{RoomID: room, Servers: []string{room.Server().String()}}, nil
}

func (f *fakeSession) CreateAlias(_ context.Context, alias ref.RoomAlias, room ref.RoomID) error {
	f.record("alias %s %s", alias, room)
	f.aliases[alias.String()] = room
	return nil
}

func (f *fakeSession) DeleteAlias(_ context.Context, alias ref.RoomAlias) error {
	f.record("alias_delete %s", alias)
	delete(f.aliases, alias.String())
	return nil
}

func (f *fakeSession) CreateRoom(_ context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	f.record("create %s %s %s direct=%t invite=%s",
		request.Name, request.Visibility, request.Preset, request.IsDirect, strings.Join(request.Invite, ","))
	return &messaging.CreateRoomResponse{RoomID: ref.MustParseRoomID("!new:example.org")}, nil
}

func (f *fakeSession) ForgetRoom(_ context.Context, room ref.RoomID) error {
	f.record("forget %s", room)
	return nil
}

func (f *fakeSession) KnockRoom(_ context.Context, target, reason string) (ref.RoomID, error) {
	f.record("knock %s %s", target, reason)
	return ref.MustParseRoomID("!knocked:example.org"), nil
}

func (f *fakeSession) UpgradeRoom(_ context.Context, room ref.RoomID, version string) (ref.RoomID, error) {
	f.record("upgrade %s %s", room, version)
	return ref.MustParseRoomID("!upgraded:example.org"), nil
}

func (f *fakeSession) RoomHierarchy(_ context.Context, room ref.RoomID, options messaging.HierarchyOptions) (*messaging.HierarchyResponse, error) {
	f.record("hierarchy %s from=%q limit=%d", room, options.From, options.Limit)
	response := f.hierarchyPages[options.From]
	return &response, nil
}

func (f *fakeSession) PublicRooms(_ context.Context, options messaging.PublicRoomsOptions) (*messaging.PublicRoomsResponse, error) {
	f.record("publicrooms server=%q since=%q limit=%d", options.Server, options.Since, options.Limit)
	return &messaging.PublicRoomsResponse{Chunk: []messaging.PublishedRoom{
		{RoomID: ref.MustParseRoomID("!lobby:example.org"), Name: "Lobby", NumJoinedMembers: 12},
	}}, nil
}

func (f *fakeSession) RoomMessages(_ context.Context, room ref.RoomID, options messaging.RoomMessagesOptions) (*messaging.RoomMessagesResponse, error) {
	f.record("messages %s from=%q dir=%s", room, options.From, options.Direction)
	response := f.messagePages[options.From]
	return &response, nil
}

func (f *fakeSession) Redact(_ context.Context, room ref.RoomID, eventID ref.EventID, _ string) (ref.EventID, error) {
	f.record("redact %s %s", room, eventID)
	if err := f.redactErrors[eventID.String()]; err != nil {
		return ref.EventID{}, err
	}
	return ref.MustParseEventID("$redaction"), nil
}

func (f *fakeSession) JoinedRooms(context.Context) ([]ref.RoomID, error) {
	return f.joined, nil
}

func (f *fakeSession) GetRoomState(_ context.Context, room ref.RoomID) ([]messaging.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLog = append(f.refreshLog, "state "+room.String())
	if err := f.stateFailures[room.String()]; err != nil {
		return nil, err
	}
	return f.roomState[room.String()], nil
}

func (f *fakeSession) GetRoomMembers(_ context.Context, room ref.RoomID) ([]messaging.RoomMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshLog = append(f.refreshLog, "members "+room.String())
	if err := f.memberFailures[room.String()]; err != nil {
		return nil, err
	}
	return f.members[room.String()], nil
}

func (f *fakeSession) GetRoomMember(_ context.Context, room ref.RoomID, user ref.UserID) (*schema.MemberContent, error) {
	for _, member := range f.members[room.String()] {
		if member.UserID == user {
			return &schema.MemberContent{Membership: member.Membership, DisplayName: member.DisplayName}, nil
		}
	}
	return nil, notFound()
}

func (f *fakeSession) GetEvent(_ context.Context, _ ref.RoomID, eventID ref.EventID) (*messaging.Event, error) {
	event, ok := f.events[eventID.String()]
	if !ok {
		return nil, notFound()
	}
	return &event, nil
}

func (f *fakeSession) GetProfile(_ context.Context, user ref.UserID) (*messaging.Profile, error) {
	profile, ok := f.profiles[user.String()]
	if !ok {
		return nil, notFound()
	}
	return &profile, nil
}

func (f *fakeSession) SetDisplayName(_ context.Context, name string) error {
	f.record("displayname %s", name)
	return nil
}

func (f *fakeSession) SetAvatarURL(_ context.Context, avatarURL string) error {
	f.record("avatar %s", avatarURL)
	return nil
}

func (f *fakeSession) GetPresence(context.Context, ref.UserID) (*messaging.Presence, error) {
	if f.presence.Presence == "" {
		return nil, notFound()
	}
	presence := f.presence
	return &presence, nil
}

func (f *fakeSession) SetPresence(_ context.Context, presence messaging.Presence) error {
	f.record("presence %s %s", presence.Presence, presence.StatusMsg)
	f.presence = presence
	return nil
}

func (f *fakeSession) SearchUserDirectory(_ context.Context, term string, limit int) (*messaging.UserDirectoryResponse, error) {
	f.record("search %s %d", term, limit)
	return &messaging.UserDirectoryResponse{Results: f.directory}, nil
}

// newTestAdmin returns an Admin over a fresh fake session with the
// default operator @op:example.org on the admin list.
func newTestAdmin(t *testing.T) (*Admin, *fakeSession, *memberstore.Memory) {
	t.Helper()
	session := newFakeSession()
	store := memberstore.NewMemory()
	t.Cleanup(store.Close)
	admin := New(Config{
		Session: session,
		Store:   store,
		Admins:  []string{"@op:example.org"},
	})
	return admin, session, store
}

// run executes a command line as the operator in opsRoom.
func run(t *testing.T, admin *Admin, args ...string) (string, error) {
	t.Helper()
	return admin.Execute(context.Background(), Request{
		RoomID:  opsRoom,
		Sender:  ref.MustParseUserID("@op:example.org"),
		EventID: ref.MustParseEventID("$command"),
		Args:    args,
	})
}

func mustRun(t *testing.T, admin *Admin, args ...string) string {
	t.Helper()
	reply, err := run(t, admin, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return reply
}

func assertCalls(t *testing.T, session *fakeSession, want ...string) {
	t.Helper()
	got := session.recorded()
	if len(got) != len(want) {
		t.Fatalf("calls = %q, want %q", got, want)
	}
	for index := range want {
		if got[index] != want[index] {
			t.Errorf("call %d = %q, want %q", index, got[index], want[index])
		}
	}
}
