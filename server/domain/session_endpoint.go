package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure is returned when the write channel is full.
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed is returned when a required dependency is missing.
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
	// ErrSessionClosed is returned by Send after the endpoint has closed.
	ErrSessionClosed = errors.New("session is closed")
)

type EndpointConfig struct {
	IdleTimeout  time.Duration
	PingInterval time.Duration
}

func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		IdleTimeout:  30 * time.Second,
		PingInterval: 10 * time.Second,
	}
}

// SessionEndpoint pumps one connection: frames read are published to the
// room topic, frames published to the session topic are written back.
type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session    *Session
	connection *Connection
	pubsub     PubSub
	room       Inbox
	cfg        EndpointConfig

	ctrlCh  chan endpointEvent
	writeCh chan []byte

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, pubsub PubSub, room Inbox, cfg EndpointConfig) (*SessionEndpoint, error) {
	if session == nil {
		return nil, ErrInitializationFailed
	}
	if connection == nil {
		return nil, ErrInitializationFailed
	}
	if pubsub == nil {
		return nil, ErrInitializationFailed
	}
	if room == nil {
		return nil, ErrInitializationFailed
	}
	defaults := DefaultEndpointConfig()
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:        ctx,
		cancel:     cancel,
		session:    session,
		connection: connection,
		pubsub:     pubsub,
		room:       room,
		cfg:        cfg,
		ctrlCh:     make(chan endpointEvent, 16),
		writeCh:    make(chan []byte, 1024),
	}
	return se, nil
}

// Run blocks until the connection closes or parent is cancelled. The room
// is told about the disconnect exactly once, whichever side ends first.
func (se *SessionEndpoint) Run(parent context.Context) error {
	stop := context.AfterFunc(parent, se.cancel)
	defer stop()

	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	if err := se.room.Connect(se.ctx, se.session.ID()); err != nil {
		se.close(IdleClosed)
		return err
	}
	defer se.close(IdleClosed)

	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.subscribeLoop(ctx, msgCh)
		return nil
	})
	eg.Go(func() error {
		NewHeartbeatService(se.cfg.PingInterval, se.session, se.connection).Run(ctx)
		return nil
	})
	return eg.Wait()
}

func (se *SessionEndpoint) Send(data []byte) error {
	if se.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, reason: IdleClosed})
}

func (se *SessionEndpoint) ForceClose() {
	se.close(IdleClosed)
}

// ownerLoop watches the logical session and applies control events.
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			idle, reason := se.session.IsIdle(se.cfg.IdleTimeout)
			if idle && reason.Has(IdlePong) {
				se.handleControlEvent(ctx, endpointEvent{kind: evClose, reason: reason})
			}
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
			}
			return
		}
		se.session.TouchRead()
		se.handleData(ctx, data)
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			if err := se.connection.Write(ctx, data); err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				return
			}
			se.session.TouchWrite()
		}
	}
}

// subscribeLoop forwards frames from the session topic to writeCh.
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			if err := se.Send(msg.Data); err != nil {
				slog.WarnContext(ctx, "subscribeLoop: message dropped", "sessionID", se.session.ID(), "err", err)
			}
		}
	}
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	if len(data) == 0 {
		return
	}
	se.pubsub.Publish(ctx, RoomTopic(se.room.Name()), Message{
		SessionID: se.session.ID(),
		Data:      data,
	})
}

func (se *SessionEndpoint) close(reason IdleReason) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	se.cancel()
	se.session.Close(reason)
	se.connection.Close(reason.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := se.room.Disconnect(ctx, se.session.ID()); err != nil && !errors.Is(err, ErrRoomClosed) {
		slog.WarnContext(ctx, "failed to notify room of disconnect", "sessionID", se.session.ID(), "room", se.room.Name(), "err", err)
	}
	slog.DebugContext(ctx, "session closed", "sessionID", se.session.ID(), "reason", reason)
}

// handleControlEvent is the only place that changes the endpoint lifecycle.
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		se.close(ev.reason)
	case evReadError, evWriteError:
		slog.DebugContext(ctx, "connection error", "sessionID", se.session.ID(), "err", ev.err)
		se.close(IdleClosed)
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}
