package domain

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// ApplicationFactory builds the application hosted by a newly created room.
type ApplicationFactory func(name RoomName) (Application, error)

type RoomInfo struct {
	Name     RoomName `json:"name"`
	Sessions int      `json:"sessions"`
}

// RoomManager owns one Room per name, created on first use and kept for the
// lifetime of its context.
type RoomManager struct {
	ctx     context.Context
	pubsub  PubSub
	factory ApplicationFactory

	mu    deadlock.Mutex
	rooms map[RoomName]*Room
	wg    sync.WaitGroup
}

func NewRoomManager(ctx context.Context, pubsub PubSub, factory ApplicationFactory) (*RoomManager, error) {
	if pubsub == nil || factory == nil {
		return nil, ErrInitializationFailed
	}
	return &RoomManager{
		ctx:     ctx,
		pubsub:  pubsub,
		factory: factory,
		rooms:   make(map[RoomName]*Room),
	}, nil
}

// Room returns the running room for name, starting it if needed.
func (m *RoomManager) Room(name RoomName) (*Room, error) {
	name = RoomName(strings.TrimSpace(string(name)))
	if name == "" {
		return nil, ErrInitializationFailed
	}
	if m.ctx.Err() != nil {
		return nil, ErrRoomClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[name]; ok {
		return room, nil
	}

	app, err := m.factory(name)
	if err != nil {
		return nil, fmt.Errorf("%w: room %s: %v", ErrInitializationFailed, name, err)
	}
	room := NewRoom(name, m.pubsub, app)
	m.rooms[name] = room
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := room.Run(m.ctx); err != nil {
			slog.ErrorContext(m.ctx, "room stopped with error", "room", name, "err", err)
		}
		m.mu.Lock()
		if m.rooms[name] == room {
			delete(m.rooms, name)
		}
		m.mu.Unlock()
	}()
	slog.InfoContext(m.ctx, "room created", "room", name)
	return room, nil
}

func (m *RoomManager) Rooms() []RoomInfo {
	m.mu.Lock()
	infos := make([]RoomInfo, 0, len(m.rooms))
	for name, room := range m.rooms {
		infos = append(infos, RoomInfo{Name: name, Sessions: room.Sessions()})
	}
	m.mu.Unlock()
	slices.SortFunc(infos, func(a, b RoomInfo) int { return strings.Compare(string(a.Name), string(b.Name)) })
	return infos
}

// Wait blocks until every room has stopped. Rooms stop when the manager's
// context is cancelled.
func (m *RoomManager) Wait() {
	m.wg.Wait()
}
