// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memberstore

import (
	"context"
	"slices"
	"sync"
)

type memoryRoom struct {
	summary RoomSummary
	members map[string]Member
}

// Memory is a process-local Store. Entries never expire.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]memoryRoom
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]memoryRoom)}
}

func (m *Memory) PutRoom(_ context.Context, summary RoomSummary, members []Member) error {
	room := memoryRoom{summary: summary, members: make(map[string]Member, len(members))}
	for _, member := range members {
		room.members[member.UserID] = member
	}
	m.mu.Lock()
	m.rooms[summary.RoomID] = room
	m.mu.Unlock()
	return nil
}

func (m *Memory) Room(_ context.Context, roomID string) (*RoomSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	summary := room.summary
	return &summary, nil
}

func (m *Memory) Members(_ context.Context, roomID string) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	members := make([]Member, 0, len(room.members))
	for _, member := range room.members {
		members = append(members, member)
	}
	sortMembers(members)
	return members, nil
}

func (m *Memory) Member(_ context.Context, roomID, userID string) (*Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.rooms[roomID].members[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &member, nil
}

func (m *Memory) Rooms(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomIDs := make([]string, 0, len(m.rooms))
	for roomID := range m.rooms {
		roomIDs = append(roomIDs, roomID)
	}
	slices.Sort(roomIDs)
	return roomIDs, nil
}

func (m *Memory) DeleteRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() {}

func sortMembers(members []Member) {
	slices.SortFunc(members, func(a, b Member) int {
		switch {
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
}

var _ Store = (*Memory)(nil)
