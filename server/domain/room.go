package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

//go:generate go tool mockgen -destination=./mocks/inbox_mock.go -package=mocks . Inbox

type RoomName string

func (n RoomName) String() string { return string(n) }

var ErrRoomClosed = errors.New("room is closed")

// Inbox is the control surface of a room seen by a session endpoint.
// Data frames travel through RoomTopic instead.
type Inbox interface {
	Name() RoomName
	Connect(ctx context.Context, sessionID SessionID) error
	Disconnect(ctx context.Context, sessionID SessionID) error
}

type roomCtrlKind uint8

const (
	roomCtrlConnect roomCtrlKind = iota + 1
	roomCtrlDisconnect
)

type roomCtrl struct {
	kind      roomCtrlKind
	sessionID SessionID
}

type roomTask struct {
	name string
	run  func(ctx context.Context, now time.Time)
}

// Room is the single writer of one application's state. Control messages,
// data frames and scheduled tasks are all handled on the goroutine in Run.
type Room struct {
	name     RoomName
	sessions map[SessionID]struct{}

	pubsub      PubSub
	application Application

	// msgCh is subscribed in NewRoom so frames published before Run starts
	// are buffered instead of lost.
	msgCh  <-chan Message
	ctrlCh chan roomCtrl
	taskCh chan roomTask
	done   chan struct{}

	sessionCount atomic.Int64
}

var (
	_ Inbox     = (*Room)(nil)
	_ Publisher = (*Room)(nil)
)

func NewRoom(name RoomName, pubsub PubSub, application Application) *Room {
	return &Room{
		name:        name,
		sessions:    make(map[SessionID]struct{}),
		pubsub:      pubsub,
		application: application,
		msgCh:       subscribeInbox(pubsub, RoomTopic(name)),
		ctrlCh:      make(chan roomCtrl, 64),
		taskCh:      make(chan roomTask, 64),
		done:        make(chan struct{}),
	}
}

// roomInboxBuffer holds inbound frames from every session of a room, so it
// is sized well above a single session's outbound buffer.
const roomInboxBuffer = 4096

func subscribeInbox(pubsub PubSub, topic Topic) <-chan Message {
	if bs, ok := pubsub.(BufferedSubscriber); ok {
		return bs.SubscribeBuffered(topic, roomInboxBuffer)
	}
	return pubsub.Subscribe(topic)
}

func (r *Room) Name() RoomName { return r.name }

// Sessions is safe to call from any goroutine.
func (r *Room) Sessions() int { return int(r.sessionCount.Load()) }

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) Connect(ctx context.Context, sessionID SessionID) error {
	return r.sendCtrl(ctx, roomCtrl{kind: roomCtrlConnect, sessionID: sessionID})
}

func (r *Room) Disconnect(ctx context.Context, sessionID SessionID) error {
	return r.sendCtrl(ctx, roomCtrl{kind: roomCtrlDisconnect, sessionID: sessionID})
}

func (r *Room) sendCtrl(ctx context.Context, msg roomCtrl) error {
	select {
	case <-r.done:
		return ErrRoomClosed
	default:
	}
	select {
	case r.ctrlCh <- msg:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendTo must be called from the room goroutine.
func (r *Room) SendTo(ctx context.Context, sessionID SessionID, data []byte) {
	if _, ok := r.sessions[sessionID]; !ok {
		return
	}
	r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{Data: data})
}

// Broadcast must be called from the room goroutine. A full session buffer
// drops the frame for that session only.
func (r *Room) Broadcast(ctx context.Context, data []byte, exclude ...SessionID) {
	for sessionID := range r.sessions {
		if excluded(sessionID, exclude) {
			continue
		}
		r.pubsub.Publish(ctx, SessionTopic(sessionID), Message{Data: data})
	}
}

func excluded(id SessionID, exclude []SessionID) bool {
	for _, e := range exclude {
		if e == id {
			return true
		}
	}
	return false
}

func (r *Room) Run(ctx context.Context) error {
	defer close(r.done)

	defer r.pubsub.Unsubscribe(RoomTopic(r.name), r.msgCh)

	if err := r.application.Start(ctx, r); err != nil {
		return err
	}
	defer r.application.Stop(context.WithoutCancel(ctx))

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range r.application.Schedules() {
		if s.Interval <= 0 || s.Run == nil {
			slog.WarnContext(ctx, "room: invalid schedule skipped", "room", r.name, "schedule", s.Name)
			continue
		}
		eg.Go(func() error {
			r.scheduleLoop(ctx, s)
			return nil
		})
	}
	eg.Go(func() error {
		r.loop(ctx, r.msgCh)
		return nil
	})
	return eg.Wait()
}

func (r *Room) loop(ctx context.Context, msgCh <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case ctrl := <-r.ctrlCh:
			r.handleControl(ctx, ctrl)
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			r.drainControl(ctx)
			if _, joined := r.sessions[msg.SessionID]; !joined {
				continue
			}
			if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
				slog.DebugContext(ctx, "room: message dropped", "room", r.name, "sessionID", msg.SessionID, "err", err)
			}
		case task := <-r.taskCh:
			task.run(ctx, time.Now())
		}
	}
}

// drainControl applies pending control messages so a connect published
// before a data frame is always seen first.
func (r *Room) drainControl(ctx context.Context) {
	for {
		select {
		case ctrl := <-r.ctrlCh:
			r.handleControl(ctx, ctrl)
		default:
			return
		}
	}
}

// scheduleLoop turns ticks into tasks so they run on the room goroutine.
func (r *Room) scheduleLoop(ctx context.Context, s Schedule) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case r.taskCh <- roomTask{name: s.Name, run: s.Run}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *Room) handleControl(ctx context.Context, msg roomCtrl) {
	switch msg.kind {
	case roomCtrlConnect:
		if _, ok := r.sessions[msg.sessionID]; ok {
			return
		}
		r.sessions[msg.sessionID] = struct{}{}
		r.sessionCount.Add(1)
		r.application.Connect(ctx, msg.sessionID)
	case roomCtrlDisconnect:
		if _, ok := r.sessions[msg.sessionID]; !ok {
			return
		}
		r.application.Disconnect(ctx, msg.sessionID)
		delete(r.sessions, msg.sessionID)
		r.sessionCount.Add(-1)
	default:
		slog.WarnContext(ctx, "room: unknown control message", "kind", msg.kind)
	}
}
