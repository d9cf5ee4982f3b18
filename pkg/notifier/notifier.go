// Package notifier delivers OS battery-changed notifications.
//
// A Notifier wraps one platform source (UPower on the system bus, or a
// polled power_supply reading). Subscribers receive raw level/scale pairs
// exactly as the platform reports them. Validation and normalization are
// left to the consumer.
package notifier

import (
	"context"
	"sync"
)

// MissingField is reported for a level or scale the platform did not supply.
const MissingField = -1

// Kind tags a notification.
type Kind int

const (
	// KindUnknown is any notification the monitor does not handle.
	KindUnknown Kind = iota
	// KindBatteryChanged carries a level/scale pair.
	KindBatteryChanged
)

func (k Kind) String() string {
	switch k {
	case KindBatteryChanged:
		return "battery-changed"
	default:
		return "unknown"
	}
}

// Event is a single notification from the platform. Level and Scale are in
// platform units (mWh for both built-in sources) and are MissingField when
// unavailable.
type Event struct {
	Kind  Kind
	Level int
	Scale int
}

// BatteryChanged is a convenience constructor for a battery-changed Event.
func BatteryChanged(level, scale int) *Event {
	return &Event{Kind: KindBatteryChanged, Level: level, Scale: scale}
}

// Handler is called for every notification. It may receive a nil Event.
// Calls for one subscription never overlap.
type Handler func(ev *Event)

// Subscription is an active registration with a Notifier.
type Subscription interface {
	// Unsubscribe stops deliveries. When it returns no further calls to the
	// handler will be made. It is safe to call more than once; only the
	// first call reaches the platform. It must not be called from inside
	// the handler.
	Unsubscribe() error
}

// Notifier is a source of battery-changed notifications.
type Notifier interface {
	// Subscribe registers h. The current battery state is delivered shortly
	// after subscribing, then again whenever it changes. ctx bounds the
	// registration itself, not the lifetime of the subscription.
	Subscribe(ctx context.Context, h Handler) (Subscription, error)
	// Close releases platform resources. Active subscriptions must be
	// unsubscribed first.
	Close() error
}

// subscription runs cancel exactly once, no matter how many times it is
// unsubscribed.
type subscription struct {
	mu       sync.Mutex
	disposed bool
	cancel   func() error
}

// NewSubscription returns a Subscription whose first Unsubscribe runs
// cancel. It is meant for Notifier implementations.
func NewSubscription(cancel func() error) Subscription {
	return &subscription{cancel: cancel}
}

func (s *subscription) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil
	}
	s.disposed = true

	return s.cancel()
}
