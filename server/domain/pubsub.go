package domain

import (
	"context"
	"log/slog"

	"github.com/sasha-s/go-deadlock"
)

//go:generate go tool mockgen -destination=./mocks/pubsub_mock.go -package=mocks . PubSub

type Topic string

func SessionTopic(id SessionID) Topic { return Topic("session:" + id.String()) }

func RoomTopic(name RoomName) Topic { return Topic("room:" + string(name)) }

// Message is one payload routed through PubSub. SessionID is the origin for
// inbound messages and empty for outbound ones.
type Message struct {
	SessionID SessionID
	Data      []byte
}

type PubSub interface {
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
	// Publish never blocks. It returns the number of subscribers that
	// dropped the message because their buffer was full.
	Publish(ctx context.Context, topic Topic, msg Message) int
}

// BufferedSubscriber is implemented by a PubSub that lets a subscriber pick
// its own buffer size.
type BufferedSubscriber interface {
	SubscribeBuffered(topic Topic, buffer int) <-chan Message
}

const defaultSubscriberBuffer = 256

// SimplePubSub is an in-process PubSub with one buffered channel per subscriber.
type SimplePubSub struct {
	mu     deadlock.RWMutex
	subs   map[Topic][]chan Message
	buffer int
}

var (
	_ PubSub             = (*SimplePubSub)(nil)
	_ BufferedSubscriber = (*SimplePubSub)(nil)
)

func NewSimplePubSub() *SimplePubSub {
	return NewSimplePubSubWithBuffer(defaultSubscriberBuffer)
}

func NewSimplePubSubWithBuffer(buffer int) *SimplePubSub {
	if buffer < 1 {
		buffer = 1
	}
	return &SimplePubSub{
		subs:   make(map[Topic][]chan Message),
		buffer: buffer,
	}
}

func (p *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	return p.SubscribeBuffered(topic, p.buffer)
}

func (p *SimplePubSub) SubscribeBuffered(topic Topic, buffer int) <-chan Message {
	ch := make(chan Message, max(buffer, 1))
	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], ch)
	p.mu.Unlock()
	return ch
}

func (p *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.subs[topic]
	for i, sub := range subs {
		if sub == ch {
			close(sub)
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(p.subs, topic)
		return
	}
	p.subs[topic] = subs
}

func (p *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	dropped := 0
	for _, sub := range p.subs[topic] {
		select {
		case sub <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "pubsub: subscriber buffer full, message dropped", "topic", topic, "dropped", dropped)
	}
	return dropped
}

// Subscribers reports how many subscribers a topic has.
func (p *SimplePubSub) Subscribers(topic Topic) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[topic])
}
