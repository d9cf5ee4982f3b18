// Package monitor turns battery-changed notifications into battery level
// events on the local bus.
package monitor

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/battery"
	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/notifier"
)

// Publisher is the bus the monitor publishes to.
type Publisher interface {
	Publish(name string, payload any) int
}

// Monitor owns at most one notifier subscription at a time. Start and Stop
// may be called from any goroutine.
type Monitor struct {
	notifier notifier.Notifier
	pub      Publisher
	now      func() time.Time

	// mu guards sub.
	mu  sync.Mutex
	sub notifier.Subscription

	lastMu  sync.RWMutex
	last    battery.Reading
	hasLast bool
}

func New(n notifier.Notifier, pub Publisher) *Monitor {
	return &Monitor{
		notifier: n,
		pub:      pub,
		now:      time.Now,
	}
}

// Start subscribes to battery-changed notifications. It is a no-op if the
// monitor is already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub != nil {
		logrus.Debug("battery monitor already running")
		return nil
	}

	sub, err := m.notifier.Subscribe(ctx, m.onBatteryChanged)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to subscribe to battery notifications")
	}
	m.sub = sub

	logrus.Info("battery monitor started")
	m.pub.Publish(events.MonitorState, events.MonitorStateEvent{Running: true, Ts: m.now().Unix()})

	return nil
}

// Stop unsubscribes. It is a no-op if the monitor is not running. The
// subscription is dropped even if unsubscribing fails.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub == nil {
		logrus.Debug("battery monitor already stopped")
		return nil
	}

	err := m.sub.Unsubscribe()
	m.sub = nil

	logrus.Info("battery monitor stopped")
	m.pub.Publish(events.MonitorState, events.MonitorStateEvent{Running: false, Ts: m.now().Unix()})

	if err != nil {
		return pkgerrors.Wrap(err, "failed to unsubscribe from battery notifications")
	}
	return nil
}

// StartMonitoring starts the monitor for an in-process display.
func (m *Monitor) StartMonitoring() error {
	return m.Start(context.Background())
}

// StopMonitoring stops the monitor for an in-process display.
func (m *Monitor) StopMonitoring() error {
	return m.Stop()
}

// Running reports whether the monitor holds a subscription.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sub != nil
}

// Last returns the most recent reading, if any has been published. The
// reading is kept across Stop and Start.
func (m *Monitor) Last() (battery.Reading, bool) {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	return m.last, m.hasLast
}

// onBatteryChanged publishes one battery level event per valid notification.
// Anything else is dropped without error.
func (m *Monitor) onBatteryChanged(ev *notifier.Event) {
	if ev == nil || ev.Kind != notifier.KindBatteryChanged {
		logrus.Trace("ignoring notification without battery state")
		return
	}

	r, ok := battery.NewReading(ev.Level, ev.Scale, m.now())
	if !ok {
		logrus.WithFields(logrus.Fields{
			"level": ev.Level,
			"scale": ev.Scale,
		}).Trace("ignoring invalid battery state")
		return
	}

	m.lastMu.Lock()
	m.last = r
	m.hasLast = true
	m.lastMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"level":      ev.Level,
		"scale":      ev.Scale,
		"percentage": r.Percentage,
	}).Debug("battery level changed")

	m.pub.Publish(events.BatteryLevel, events.BatteryLevelEvent{
		Percentage: r.Percentage,
		Ts:         r.Time.Unix(),
	})
}
