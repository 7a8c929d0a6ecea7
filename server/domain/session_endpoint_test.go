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

func blockingRead(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestNewSessionEndpoint_RejectsMissingDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	c := domain.NewConnection(s.ID(), mocks.NewMockTransport(ctrl))
	ps := domain.NewSimplePubSub()
	room := mocks.NewMockInbox(ctrl)

	tests := []struct {
		name string
		fn   func() (*domain.SessionEndpoint, error)
	}{
		{"session", func() (*domain.SessionEndpoint, error) {
			return domain.NewSessionEndpoint(nil, c, ps, room, domain.EndpointConfig{})
		}},
		{"connection", func() (*domain.SessionEndpoint, error) {
			return domain.NewSessionEndpoint(s, nil, ps, room, domain.EndpointConfig{})
		}},
		{"pubsub", func() (*domain.SessionEndpoint, error) {
			return domain.NewSessionEndpoint(s, c, nil, room, domain.EndpointConfig{})
		}},
		{"room", func() (*domain.SessionEndpoint, error) {
			return domain.NewSessionEndpoint(s, c, ps, nil, domain.EndpointConfig{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se, err := tt.fn()
			if !errors.Is(err, domain.ErrInitializationFailed) {
				t.Fatalf("err = %v, want %v", err, domain.ErrInitializationFailed)
			}
			if se != nil {
				t.Errorf("endpoint = %v, want nil", se)
			}
		})
	}
}

func TestSessionEndpoint_RoutesFramesAndClosesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	room := mocks.NewMockInbox(ctrl)
	ps := domain.NewSimplePubSub()

	inbound := []byte(`{"type":"chat","text":"hi"}`)
	outbound := []byte(`{"type":"playerLeft","playerId":"p1"}`)

	roomCh := ps.Subscribe(domain.RoomTopic("main"))
	defer ps.Unsubscribe(domain.RoomTopic("main"), roomCh)

	written := make(chan []byte, 4)
	room.EXPECT().Name().Return(domain.RoomName("main")).AnyTimes()
	room.EXPECT().Connect(gomock.Any(), s.ID()).Return(nil).Times(1)
	room.EXPECT().Disconnect(gomock.Any(), s.ID()).Return(nil).Times(1)
	tr.EXPECT().Read(gomock.Any()).Return(inbound, nil).Times(1)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes()
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) error {
		written <- data
		return nil
	}).AnyTimes()
	tr.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Close(domain.StatusNormalClosure, gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(s.ID(), tr), ps, room, domain.EndpointConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- se.Run(context.Background()) }()

	select {
	case msg := <-roomCh:
		if msg.SessionID != s.ID() {
			t.Errorf("SessionID = %v, want %v", msg.SessionID, s.ID())
		}
		if string(msg.Data) != string(inbound) {
			t.Errorf("Data = %s, want %s", msg.Data, inbound)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for room frame")
	}

	ps.Publish(context.Background(), domain.SessionTopic(s.ID()), domain.Message{Data: outbound})
	select {
	case data := <-written:
		if string(data) != string(outbound) {
			t.Errorf("written = %s, want %s", data, outbound)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for write")
	}

	se.ForceClose()
	se.ForceClose()

	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after close")
	}
	if err := se.Send(outbound); !errors.Is(err, domain.ErrSessionClosed) {
		t.Errorf("Send after close = %v, want %v", err, domain.ErrSessionClosed)
	}
}

func TestSessionEndpoint_ReadErrorClosesSession(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	room := mocks.NewMockInbox(ctrl)

	room.EXPECT().Name().Return(domain.RoomName("main")).AnyTimes()
	room.EXPECT().Connect(gomock.Any(), s.ID()).Return(nil)
	room.EXPECT().Disconnect(gomock.Any(), s.ID()).Return(nil).Times(1)
	tr.EXPECT().Read(gomock.Any()).Return(nil, errors.New("connection reset"))
	tr.EXPECT().Ping(gomock.Any()).Return(nil).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(s.ID(), tr), domain.NewSimplePubSub(), room, domain.EndpointConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after read error")
	}
	if !s.IsClosed() {
		t.Errorf("session not closed")
	}
}

func TestSessionEndpoint_ClosesWhenPongIdle(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	room := mocks.NewMockInbox(ctrl)

	room.EXPECT().Name().Return(domain.RoomName("main")).AnyTimes()
	room.EXPECT().Connect(gomock.Any(), s.ID()).Return(nil)
	room.EXPECT().Disconnect(gomock.Any(), s.ID()).Return(nil).Times(1)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	cfg := domain.EndpointConfig{IdleTimeout: 10 * time.Millisecond, PingInterval: time.Hour}
	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(s.ID(), tr), domain.NewSimplePubSub(), room, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- se.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("idle session was not closed")
	}
	if got := s.CloseReason(); !got.Has(domain.IdlePong) {
		t.Errorf("CloseReason = %v, want pong", got)
	}
}

func TestSessionEndpoint_ConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := domain.NewSession()
	tr := mocks.NewMockTransport(ctrl)
	room := mocks.NewMockInbox(ctrl)

	room.EXPECT().Name().Return(domain.RoomName("main")).AnyTimes()
	room.EXPECT().Connect(gomock.Any(), s.ID()).Return(domain.ErrRoomClosed)
	room.EXPECT().Disconnect(gomock.Any(), s.ID()).Return(domain.ErrRoomClosed).AnyTimes()
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	se, err := domain.NewSessionEndpoint(s, domain.NewConnection(s.ID(), tr), domain.NewSimplePubSub(), room, domain.EndpointConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := se.Run(context.Background()); !errors.Is(err, domain.ErrRoomClosed) {
		t.Errorf("Run() = %v, want %v", err, domain.ErrRoomClosed)
	}
}
