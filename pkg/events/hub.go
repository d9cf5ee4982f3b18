package events

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// subscriberBuffer is the number of events a subscriber may lag behind
// before new events are dropped for it.
const subscriberBuffer = 16

// Hub is the in-process publish/subscribe bus. Events are fanned out to
// every subscriber without blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub { return &Hub{subs: make(map[chan Event]struct{})} }

// Subscribe registers a new subscriber. The returned channel is closed by
// Unsubscribe or Close.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch from the hub. Calling it more than once, or after
// Close, is a no-op.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish encodes payload as JSON and sends it to all subscribers under
// name. It returns the number of subscribers that received the event.
func (h *Hub) Publish(name string, payload any) int {
	if h == nil {
		return 0
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.WithField("event", name).Errorf("failed to encode event payload: %v", err)
		return 0
	}
	msg := Event{Name: name, Data: b}

	delivered := 0
	h.mu.RLock()
	for ch := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- msg:
			delivered++
		default:
			logrus.WithField("event", name).Trace("subscriber is slow, event dropped")
		}
	}
	h.mu.RUnlock()

	return delivered
}

// Subscribers returns the current number of subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	h.closed = true
}
