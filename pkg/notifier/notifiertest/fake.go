// Package notifiertest provides an in-memory notifier.Notifier for tests.
package notifiertest

import (
	"context"
	"sync"

	"github.com/charlie0129/batmon/pkg/notifier"
)

// Fake is an in-memory Notifier. Emit delivers synchronously to every
// active subscriber.
type Fake struct {
	mu           sync.Mutex
	handlers     map[int]notifier.Handler
	nextID       int
	subscribes   int
	unsubscribes int
	SubscribeErr error
}

var _ notifier.Notifier = &Fake{}

func NewFake() *Fake {
	return &Fake{handlers: make(map[int]notifier.Handler)}
}

func (f *Fake) Subscribe(_ context.Context, h notifier.Handler) (notifier.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}

	id := f.nextID
	f.nextID++
	f.handlers[id] = h
	f.subscribes++

	return notifier.NewSubscription(func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
		f.unsubscribes++
		return nil
	}), nil
}

func (f *Fake) Close() error { return nil }

// Emit delivers ev to all active subscribers.
func (f *Fake) Emit(ev *notifier.Event) {
	f.mu.Lock()
	handlers := make([]notifier.Handler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Active returns the number of live subscriptions.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// Subscribes returns how many times Subscribe succeeded.
func (f *Fake) Subscribes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribes
}

// Unsubscribes returns how many subscriptions reached the platform teardown.
func (f *Fake) Unsubscribes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}
