// Path: internal/events/broker.go
package events

import "sync"

// Topics published by the sync service.
const (
	// TopicTaskFailed carries a domain.Warning for each task that produced no dataset.
	TopicTaskFailed = "sync:task_failed"
	// TopicRunCompleted carries the run summary once artifacts are persisted.
	TopicRunCompleted = "sync:run_completed"
)

// subscriberBuffer bounds how many events a slow subscriber may lag behind
// before further events to it are dropped.
const subscriberBuffer = 16

// Event represents a message passed through the broker.
type Event struct {
	Topic string
	Data  any
}

// Broker implements a simple in-memory pub/sub system. Publish never blocks.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	closed      bool
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe creates a new subscription to a topic.
// It returns a read-only channel where events for that topic will be sent.
// The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(topic string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Unsubscribe removes and closes a subscription returned by Subscribe.
func (b *Broker) Unsubscribe(topic string, sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, ch := range subs {
		if ch == sub {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends an event to all subscribers of a topic. Subscribers whose
// buffer is full miss the event.
func (b *Broker) Publish(topic string, data any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Data: data}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes every subscription. Later publishes are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
}
