package store

import (
	"context"

	"github.com/sasha-s/go-deadlock"
)

// Memory keeps snapshots for the lifetime of the process.
type Memory struct {
	mu    deadlock.RWMutex
	rooms map[string]Snapshot
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]Snapshot)}
}

func (m *Memory) Load(ctx context.Context, room string) (Snapshot, error) {
	_ = ctx
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.rooms[room]
	if !ok {
		return Snapshot{}, ErrNoSnapshot
	}
	return snap.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, room string, snap Snapshot) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room] = snap.Clone()
	return nil
}
