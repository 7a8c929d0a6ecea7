package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
	"github.com/jhaladik/christmas-hunt-game/server/domain/mocks"
)

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestRoom_SerializesControlDataAndTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	app := mocks.NewMockApplication(ctrl)
	ps := domain.NewSimplePubSub()
	room := domain.NewRoom("main", ps, app)

	alice := domain.NewSessionID()
	bob := domain.NewSessionID()
	stranger := domain.NewSessionID()

	var pub domain.Publisher
	connected := make(chan struct{}, 2)
	handled := make(chan struct{}, 1)
	ticked := make(chan struct{}, 1)
	disconnected := make(chan struct{}, 1)
	stopped := make(chan struct{})

	app.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p domain.Publisher) error {
		pub = p
		return nil
	})
	app.EXPECT().Schedules().Return([]domain.Schedule{{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context, time.Time) {
			select {
			case ticked <- struct{}{}:
			default:
			}
		},
	}})
	app.EXPECT().Connect(gomock.Any(), gomock.Any()).Do(func(context.Context, domain.SessionID) {
		connected <- struct{}{}
	}).Times(2)
	app.EXPECT().HandleMessage(gomock.Any(), alice, []byte(`{"type":"chat"}`)).DoAndReturn(
		func(ctx context.Context, _ domain.SessionID, data []byte) error {
			pub.Broadcast(ctx, []byte("hello"), alice)
			handled <- struct{}{}
			return nil
		}).Times(1)
	app.EXPECT().Disconnect(gomock.Any(), bob).Do(func(context.Context, domain.SessionID) {
		disconnected <- struct{}{}
	}).Times(1)
	app.EXPECT().Stop(gomock.Any()).Do(func(context.Context) { close(stopped) })

	aliceCh := ps.Subscribe(domain.SessionTopic(alice))
	bobCh := ps.Subscribe(domain.SessionTopic(bob))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = room.Run(ctx) }()

	ctxTimeout, cancelTimeout := context.WithTimeout(ctx, time.Second)
	defer cancelTimeout()
	if err := room.Connect(ctxTimeout, alice); err != nil {
		t.Fatalf("Connect(alice): %v", err)
	}
	if err := room.Connect(ctxTimeout, bob); err != nil {
		t.Fatalf("Connect(bob): %v", err)
	}
	// duplicate connects are ignored
	if err := room.Connect(ctxTimeout, bob); err != nil {
		t.Fatalf("Connect(bob) again: %v", err)
	}
	waitSignal(t, connected, "first connect")
	waitSignal(t, connected, "second connect")

	ps.Publish(ctx, domain.RoomTopic("main"), domain.Message{SessionID: stranger, Data: []byte(`{"type":"chat"}`)})
	ps.Publish(ctx, domain.RoomTopic("main"), domain.Message{SessionID: alice, Data: []byte(`{"type":"chat"}`)})
	waitSignal(t, handled, "message handling")

	select {
	case msg := <-bobCh:
		if string(msg.Data) != "hello" {
			t.Errorf("bob got %q, want %q", msg.Data, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("bob did not receive the broadcast")
	}
	select {
	case msg := <-aliceCh:
		t.Errorf("excluded session received %q", msg.Data)
	default:
	}

	waitSignal(t, ticked, "scheduled task")
	if got := room.Sessions(); got != 2 {
		t.Errorf("Sessions = %d, want 2", got)
	}

	if err := room.Disconnect(ctxTimeout, bob); err != nil {
		t.Fatalf("Disconnect(bob): %v", err)
	}
	// a second disconnect of the same session is a no-op
	if err := room.Disconnect(ctxTimeout, bob); err != nil {
		t.Fatalf("Disconnect(bob) again: %v", err)
	}
	waitSignal(t, disconnected, "disconnect")

	cancel()
	waitSignal(t, stopped, "application stop")
	select {
	case <-room.Done():
	case <-time.After(time.Second):
		t.Fatal("room did not finish")
	}
	if err := room.Connect(context.Background(), alice); err != domain.ErrRoomClosed {
		t.Errorf("Connect after stop = %v, want %v", err, domain.ErrRoomClosed)
	}
}

func TestRoomManager_CreatesRoomOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())

	created := 0
	factory := func(name domain.RoomName) (domain.Application, error) {
		if name == "broken" {
			return nil, errors.New("no level")
		}
		created++
		app := mocks.NewMockApplication(ctrl)
		app.EXPECT().Start(gomock.Any(), gomock.Any()).Return(nil)
		app.EXPECT().Schedules().Return(nil)
		app.EXPECT().Stop(gomock.Any())
		return app, nil
	}

	m, err := domain.NewRoomManager(ctx, domain.NewSimplePubSub(), factory)
	if err != nil {
		t.Fatalf("NewRoomManager: %v", err)
	}
	a, err := m.Room("main")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	b, err := m.Room(" main ")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if a != b {
		t.Errorf("Room returned different instances for the same name")
	}
	if _, err := m.Room("lobby"); err != nil {
		t.Fatalf("Room(lobby): %v", err)
	}
	if _, err := m.Room("  "); err == nil {
		t.Errorf("Room(blank) error = nil, want error")
	}
	if _, err := m.Room("broken"); !errors.Is(err, domain.ErrInitializationFailed) {
		t.Errorf("Room(broken) = %v, want ErrInitializationFailed", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}

	infos := m.Rooms()
	if len(infos) != 2 || infos[0].Name != "lobby" || infos[1].Name != "main" {
		t.Errorf("Rooms = %+v, want [lobby main]", infos)
	}

	cancel()
	m.Wait()
	if _, err := m.Room("main"); err != domain.ErrRoomClosed {
		t.Errorf("Room after cancel = %v, want %v", err, domain.ErrRoomClosed)
	}
}

func TestRoomManager_BuffersFramesPublishedBeforeRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sid := domain.NewSessionID()
	join := []byte(`{"type":"join","name":"Alice"}`)
	release := make(chan struct{})
	handled := make(chan struct{}, 1)

	app := mocks.NewMockApplication(ctrl)
	app.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.Publisher) error {
		<-release
		return nil
	})
	app.EXPECT().Schedules().Return(nil)
	app.EXPECT().Connect(gomock.Any(), sid)
	app.EXPECT().HandleMessage(gomock.Any(), sid, join).DoAndReturn(func(context.Context, domain.SessionID, []byte) error {
		handled <- struct{}{}
		return nil
	})
	app.EXPECT().Stop(gomock.Any())

	ps := domain.NewSimplePubSub()
	m, err := domain.NewRoomManager(ctx, ps, func(domain.RoomName) (domain.Application, error) { return app, nil })
	if err != nil {
		t.Fatalf("NewRoomManager: %v", err)
	}
	room, err := m.Room("north")
	if err != nil {
		t.Fatalf("Room: %v", err)
	}
	if n := ps.Subscribers(domain.RoomTopic("north")); n != 1 {
		t.Fatalf("room topic subscribers = %d right after Room, want 1", n)
	}
	if err := room.Connect(ctx, sid); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if dropped := ps.Publish(ctx, domain.RoomTopic("north"), domain.Message{SessionID: sid, Data: join}); dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}

	close(release)
	waitSignal(t, handled, "join handled")

	cancel()
	m.Wait()
	if n := ps.Subscribers(domain.RoomTopic("north")); n != 0 {
		t.Errorf("room topic subscribers after stop = %d, want 0", n)
	}
}

func TestRoom_InboxOutlastsSessionBuffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	ps := domain.NewSimplePubSub()
	domain.NewRoom("busy", ps, mocks.NewMockApplication(ctrl))

	// A burst from many sessions is larger than one session's buffer but
	// must still reach the room.
	sid := domain.NewSessionID()
	for i := range 1000 {
		if dropped := ps.Publish(context.Background(), domain.RoomTopic("busy"), domain.Message{SessionID: sid, Data: []byte(`{"type":"move"}`)}); dropped != 0 {
			t.Fatalf("frame %d dropped, want room inbox to buffer it", i)
		}
	}
}
