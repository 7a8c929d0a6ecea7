package domain_test

import (
	"context"
	"testing"

	"github.com/jhaladik/christmas-hunt-game/server/domain"
)

func TestSimplePubSub_PublishFansOut(t *testing.T) {
	ps := domain.NewSimplePubSub()
	topic := domain.Topic("room:main")
	a := ps.Subscribe(topic)
	b := ps.Subscribe(topic)

	dropped := ps.Publish(context.Background(), topic, domain.Message{Data: []byte("x")})
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	for i, ch := range []<-chan domain.Message{a, b} {
		select {
		case msg := <-ch:
			if string(msg.Data) != "x" {
				t.Errorf("subscriber %d got %q, want %q", i, msg.Data, "x")
			}
		default:
			t.Errorf("subscriber %d received nothing", i)
		}
	}
}

// A full subscriber must not block delivery to the others.
func TestSimplePubSub_FullSubscriberDoesNotAbortBroadcast(t *testing.T) {
	ps := domain.NewSimplePubSubWithBuffer(1)
	topic := domain.Topic("session:slow")
	slow := ps.Subscribe(topic)
	fast := ps.Subscribe(topic)

	ps.Publish(context.Background(), topic, domain.Message{Data: []byte("1")})
	<-fast

	dropped := ps.Publish(context.Background(), topic, domain.Message{Data: []byte("2")})
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	select {
	case msg := <-fast:
		if string(msg.Data) != "2" {
			t.Errorf("fast got %q, want %q", msg.Data, "2")
		}
	default:
		t.Errorf("fast subscriber missed the second message")
	}
	if got := string((<-slow).Data); got != "1" {
		t.Errorf("slow got %q, want %q", got, "1")
	}
}

func TestSimplePubSub_UnsubscribeClosesChannel(t *testing.T) {
	ps := domain.NewSimplePubSub()
	topic := domain.SessionTopic(domain.NewSessionID())
	ch := ps.Subscribe(topic)
	ps.Unsubscribe(topic, ch)

	if _, ok := <-ch; ok {
		t.Errorf("channel still open after Unsubscribe")
	}
	if n := ps.Subscribers(topic); n != 0 {
		t.Errorf("Subscribers = %d, want 0", n)
	}
	if dropped := ps.Publish(context.Background(), topic, domain.Message{}); dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestSimplePubSub_SubscribeBuffered(t *testing.T) {
	ps := domain.NewSimplePubSubWithBuffer(1)
	topic := domain.Topic("room:big")
	ch := ps.SubscribeBuffered(topic, 3)

	for i := range 3 {
		if dropped := ps.Publish(context.Background(), topic, domain.Message{}); dropped != 0 {
			t.Fatalf("publish %d dropped, want buffered", i)
		}
	}
	if dropped := ps.Publish(context.Background(), topic, domain.Message{}); dropped != 1 {
		t.Errorf("dropped = %d past the buffer, want 1", dropped)
	}
	if len(ch) != 3 {
		t.Errorf("buffered = %d, want 3", len(ch))
	}
}
