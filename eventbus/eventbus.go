package eventbus

import (
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Bus is a small in-process publish/subscribe hub. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Bus struct {
	mut    sync.RWMutex
	subs   map[string][]*Subscription
	logger kitlog.Logger
	closed bool
}

type Subscription struct {
	topic string
	ch    chan any
	bus   *Bus
}

// C returns the channel events are delivered on. It is closed when the
// subscription is cancelled or the bus shuts down.
func (s *Subscription) C() <-chan any {
	return s.ch
}

// Cancel removes the subscription from the bus and closes its channel.
func (s *Subscription) Cancel() {
	s.bus.unsubscribe(s)
}

func New(logger kitlog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a new subscriber on the topic with the given buffer size.
func (b *Bus) Subscribe(topic string, buffer int) *Subscription {
	b.mut.Lock()
	defer b.mut.Unlock()

	sub := &Subscription{
		topic: topic,
		ch:    make(chan any, buffer),
		bus:   b,
	}

	b.subs[topic] = append(b.subs[topic], sub)

	return sub
}

// Publish delivers the payload to every subscriber of the topic.
func (b *Bus) Publish(topic string, payload any) {
	b.mut.RLock()
	defer b.mut.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- payload:
		default:
			level.Warn(b.logger).Log("msg", "slow event subscriber, dropping event", "topic", topic)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mut.Lock()
	defer b.mut.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.ch)
		}
	}

	b.subs = make(map[string][]*Subscription)
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mut.Lock()
	defer b.mut.Unlock()

	if b.closed {
		return
	}

	subs := b.subs[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.topic] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)

			break
		}
	}
}
