package display

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/events"
)

// DefaultLoopSize is the default capacity of a Loop.
const DefaultLoopSize = 16

// Loop is a UI task queue. Any goroutine may Post; exactly one goroutine,
// the UI context, runs the tasks through Run or Drain.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop(size int) *Loop {
	if size <= 0 {
		size = DefaultLoopSize
	}
	return &Loop{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post queues fn, blocking while the queue is full. It returns false if the
// loop was closed. Do not Post from the UI context into a full queue.
func (l *Loop) Post(fn func()) bool {
	return l.PostContext(context.Background(), fn)
}

// PostContext is like Post but also gives up, returning false, once ctx is
// done.
func (l *Loop) PostContext(ctx context.Context, fn func()) bool {
	select {
	case <-l.done:
		return false
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Drain runs every task queued so far and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}

// Run runs tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Close stops Run and rejects further posts. Safe to call more than once.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Feed moves bus events onto the loop as Display updates until ctx is done
// or ch is closed.
func Feed(ctx context.Context, ch <-chan events.Event, loop *Loop, d *Display) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fn := Apply(ev, d)
			if fn == nil {
				continue
			}
			if !loop.PostContext(ctx, fn) {
				return
			}
		}
	}
}

// Apply returns the Display update for ev, or nil if ev is not for the
// display or cannot be decoded. The returned func must run on the UI
// context.
func Apply(ev events.Event, d *Display) func() {
	switch ev.Name {
	case events.BatteryLevel:
		payload, err := events.DecodeAs[events.BatteryLevelEvent](ev)
		if err != nil {
			logrus.WithField("event", ev.Name).Warnf("failed to decode event: %v", err)
			return nil
		}
		return func() { d.ShowLevel(payload.Percentage) }
	case events.MonitorState:
		payload, err := events.DecodeAs[events.MonitorStateEvent](ev)
		if err != nil {
			logrus.WithField("event", ev.Name).Warnf("failed to decode event: %v", err)
			return nil
		}
		return func() { d.SyncRunning(payload.Running) }
	default:
		return nil
	}
}
