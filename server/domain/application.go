package domain

import (
	"context"
	"time"
)

//go:generate go tool mockgen -destination=./mocks/application_mock.go -package=mocks . Application,Publisher

// Application is the simulation a Room hosts. Every method is called from
// the room goroutine only, so implementations need no locking.
type Application interface {
	// Start runs once before any other call. pub stays valid for the room's lifetime.
	Start(ctx context.Context, pub Publisher) error
	Connect(ctx context.Context, sessionID SessionID)
	Disconnect(ctx context.Context, sessionID SessionID)
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	Schedules() []Schedule
	Stop(ctx context.Context)
}

// Publisher delivers encoded messages to the sessions of one room.
type Publisher interface {
	SendTo(ctx context.Context, sessionID SessionID, data []byte)
	Broadcast(ctx context.Context, data []byte, exclude ...SessionID)
}

// Schedule is a periodic task run on the room goroutine.
type Schedule struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time)
}
