// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memberstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig describes the connection to a Valkey (or Redis) server.
type ValkeyConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	UseTLS   bool

	// KeyPrefix namespaces every key; defaults to "warden:".
	KeyPrefix string

	// TTL bounds how long a refreshed room stays cached. Zero keeps
	// entries until the next refresh.
	TTL time.Duration

	// DisableCache turns off client-side caching, which miniredis
	// does not support.
	DisableCache bool
}

// Valkey is a Store backed by a Valkey server.
//
// Layout, relative to KeyPrefix:
//
//	rooms            set of cached room IDs
//	room:<id>        JSON RoomSummary
//	members:<id>     hash of user ID -> JSON Member
type Valkey struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkey connects to the server in config.
func NewValkey(config ValkeyConfig) (*Valkey, error) {
	addr := strings.TrimSpace(config.Addr)
	if addr == "" {
		return nil, errors.New("memberstore: valkey address is empty")
	}

	var tlsConfig *tls.Config
	if config.UseTLS {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{addr},
		Username:     config.Username,
		Password:     config.Password,
		SelectDB:     config.DB,
		TLSConfig:    tlsConfig,
		DisableCache: config.DisableCache,
	})
	if err != nil {
		return nil, fmt.Errorf("memberstore: connecting to valkey at %s: %w", addr, err)
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "warden:"
	}
	return &Valkey{client: client, prefix: prefix, ttl: config.TTL}, nil
}

// Ping checks that the server is reachable.
func (v *Valkey) Ping(ctx context.Context) error {
	if err := v.client.Do(ctx, v.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("memberstore: ping: %w", err)
	}
	return nil
}

func (v *Valkey) roomsKey() string                { return v.prefix + "rooms" }
func (v *Valkey) roomKey(roomID string) string    { return v.prefix + "room:" + roomID }
func (v *Valkey) membersKey(roomID string) string { return v.prefix + "members:" + roomID }

// PutRoom replaces the summary and member hash in one pipeline. The
// room and member keys hash to different slots, so each is deleted by
// its own command.
func (v *Valkey) PutRoom(ctx context.Context, summary RoomSummary, members []Member) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("memberstore: encoding summary of %s: %w", summary.RoomID, err)
	}

	roomKey, membersKey := v.roomKey(summary.RoomID), v.membersKey(summary.RoomID)
	commands := valkey.Commands{
		v.client.B().Del().Key(roomKey).Build(),
		v.client.B().Del().Key(membersKey).Build(),
		v.client.B().Sadd().Key(v.roomsKey()).Member(summary.RoomID).Build(),
	}
	if v.ttl > 0 {
		commands = append(commands, v.client.B().Set().Key(roomKey).Value(string(summaryJSON)).Ex(v.ttl).Build())
	} else {
		commands = append(commands, v.client.B().Set().Key(roomKey).Value(string(summaryJSON)).Build())
	}

	if len(members) > 0 {
		fields := v.client.B().Hset().Key(membersKey).FieldValue()
		for _, member := range members {
			memberJSON, err := json.Marshal(member)
			if err != nil {
				return fmt.Errorf("memberstore: encoding member %s: %w", member.UserID, err)
			}
			fields = fields.FieldValue(member.UserID, string(memberJSON))
		}
		commands = append(commands, fields.Build())
		if v.ttl > 0 {
			commands = append(commands, v.client.B().Expire().Key(membersKey).Seconds(int64(v.ttl/time.Second)).Build())
		}
	}

	for _, result := range v.client.DoMulti(ctx, commands...) {
		if err := result.Error(); err != nil {
			return fmt.Errorf("memberstore: storing %s: %w", summary.RoomID, err)
		}
	}
	return nil
}

func (v *Valkey) Room(ctx context.Context, roomID string) (*RoomSummary, error) {
	raw, err := v.client.Do(ctx, v.client.B().Get().Key(v.roomKey(roomID)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("memberstore: reading %s: %w", roomID, err)
	}
	var summary RoomSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("memberstore: decoding summary of %s: %w", roomID, err)
	}
	return &summary, nil
}

func (v *Valkey) Members(ctx context.Context, roomID string) ([]Member, error) {
	results := v.client.DoMulti(ctx,
		v.client.B().Exists().Key(v.roomKey(roomID)).Build(),
		v.client.B().Hgetall().Key(v.membersKey(roomID)).Build(),
	)
	exists, err := results[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("memberstore: checking %s: %w", roomID, err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	fields, err := results[1].AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("memberstore: reading members of %s: %w", roomID, err)
	}

	members := make([]Member, 0, len(fields))
	for userID, raw := range fields {
		var member Member
		if err := json.Unmarshal([]byte(raw), &member); err != nil {
			return nil, fmt.Errorf("memberstore: decoding member %s of %s: %w", userID, roomID, err)
		}
		members = append(members, member)
	}
	sortMembers(members)
	return members, nil
}

func (v *Valkey) Member(ctx context.Context, roomID, userID string) (*Member, error) {
	raw, err := v.client.Do(ctx, v.client.B().Hget().Key(v.membersKey(roomID)).Field(userID).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("memberstore: reading member %s of %s: %w", userID, roomID, err)
	}
	var member Member
	if err := json.Unmarshal([]byte(raw), &member); err != nil {
		return nil, fmt.Errorf("memberstore: decoding member %s of %s: %w", userID, roomID, err)
	}
	return &member, nil
}

// Rooms lists cached rooms. Rooms whose summary has expired are pruned
// from the index as a side effect.
func (v *Valkey) Rooms(ctx context.Context) ([]string, error) {
	roomIDs, err := v.client.Do(ctx, v.client.B().Smembers().Key(v.roomsKey()).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("memberstore: listing rooms: %w", err)
	}
	if len(roomIDs) == 0 {
		return roomIDs, nil
	}

	checks := make(valkey.Commands, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		checks = append(checks, v.client.B().Exists().Key(v.roomKey(roomID)).Build())
	}
	live := roomIDs[:0]
	var expired []string
	for index, result := range v.client.DoMulti(ctx, checks...) {
		exists, err := result.AsInt64()
		if err != nil {
			return nil, fmt.Errorf("memberstore: checking %s: %w", roomIDs[index], err)
		}
		if exists == 0 {
			expired = append(expired, roomIDs[index])
			continue
		}
		live = append(live, roomIDs[index])
	}
	if len(expired) > 0 {
		if err := v.client.Do(ctx, v.client.B().Srem().Key(v.roomsKey()).Member(expired...).Build()).Error(); err != nil {
			return nil, fmt.Errorf("memberstore: pruning expired rooms: %w", err)
		}
	}
	slices.Sort(live)
	return live, nil
}

func (v *Valkey) DeleteRoom(ctx context.Context, roomID string) error {
	results := v.client.DoMulti(ctx,
		v.client.B().Del().Key(v.roomKey(roomID)).Build(),
		v.client.B().Del().Key(v.membersKey(roomID)).Build(),
		v.client.B().Srem().Key(v.roomsKey()).Member(roomID).Build(),
	)
	for _, result := range results {
		if err := result.Error(); err != nil {
			return fmt.Errorf("memberstore: deleting %s: %w", roomID, err)
		}
	}
	return nil
}

func (v *Valkey) Close() { v.client.Close() }

var _ Store = (*Valkey)(nil)
