package monitor

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/notifier"
	"github.com/charlie0129/batmon/pkg/notifier/notifiertest"
)

type published struct {
	name    string
	payload any
}

type recorder struct {
	mu  sync.Mutex
	got []published
}

func (r *recorder) Publish(name string, payload any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, published{name: name, payload: payload})
	return 1
}

func (r *recorder) levels() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ret []int
	for _, p := range r.got {
		if ev, ok := p.payload.(events.BatteryLevelEvent); ok && p.name == events.BatteryLevel {
			ret = append(ret, ev.Percentage)
		}
	}
	return ret
}

func newStartedMonitor(t *testing.T) (*Monitor, *notifiertest.Fake, *recorder) {
	t.Helper()
	f := notifiertest.NewFake()
	r := &recorder{}
	m := New(f, r)
	require.NoError(t, m.Start(t.Context()))
	return m, f, r
}

func TestMonitorPublishesValidLevels(t *testing.T) {
	tests := []struct {
		name  string
		level int
		scale int
		want  []int
	}{
		{name: "half", level: 50, scale: 100, want: []int{50}},
		{name: "low", level: 10, scale: 100, want: []int{10}},
		{name: "rounded", level: 1, scale: 8, want: []int{13}},
		{name: "negative level", level: -1, scale: 100, want: nil},
		{name: "zero scale", level: 10, scale: 0, want: nil},
		{name: "negative scale", level: 10, scale: -5, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f, r := newStartedMonitor(t)
			f.Emit(notifier.BatteryChanged(tt.level, tt.scale))
			assert.Equal(t, tt.want, r.levels())
		})
	}
}

func TestMonitorDropsMalformedNotifications(t *testing.T) {
	m, f, r := newStartedMonitor(t)

	f.Emit(nil)
	f.Emit(&notifier.Event{Kind: notifier.KindUnknown, Level: 50, Scale: 100})
	f.Emit(notifier.BatteryChanged(notifier.MissingField, notifier.MissingField))

	assert.Empty(t, r.levels())
	_, ok := m.Last()
	assert.False(t, ok)
}

func TestMonitorLast(t *testing.T) {
	m, f, _ := newStartedMonitor(t)

	f.Emit(notifier.BatteryChanged(50, 100))
	f.Emit(notifier.BatteryChanged(-1, 100))

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, 50, last.Percentage)
}

func TestMonitorStartStopIdempotent(t *testing.T) {
	f := notifiertest.NewFake()
	r := &recorder{}
	m := New(f, r)

	require.NoError(t, m.Start(t.Context()))
	require.NoError(t, m.Start(t.Context()))
	assert.True(t, m.Running())
	assert.Equal(t, 1, f.Subscribes())

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	assert.False(t, m.Running())
	assert.Equal(t, 1, f.Unsubscribes())
	assert.Equal(t, 0, f.Active())

	f.Emit(notifier.BatteryChanged(50, 100))
	assert.Empty(t, r.levels())

	var states []bool
	for _, p := range r.got {
		if ev, ok := p.payload.(events.MonitorStateEvent); ok {
			states = append(states, ev.Running)
		}
	}
	assert.Equal(t, []bool{true, false}, states)
}

func TestMonitorStartError(t *testing.T) {
	f := notifiertest.NewFake()
	f.SubscribeErr = errors.New("bus down")
	m := New(f, &recorder{})

	assert.Error(t, m.Start(t.Context()))
	assert.False(t, m.Running())
}

func TestMonitorWithHub(t *testing.T) {
	f := notifiertest.NewFake()
	hub := events.NewHub()
	ch := hub.Subscribe()
	m := New(f, hub)
	require.NoError(t, m.Start(t.Context()))

	state := <-ch
	assert.Equal(t, events.MonitorState, state.Name)

	f.Emit(notifier.BatteryChanged(50, 100))
	ev := <-ch
	require.Equal(t, events.BatteryLevel, ev.Name)
	payload, err := events.DecodeAs[events.BatteryLevelEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, 50, payload.Percentage)
}

func TestMonitorServiceController(t *testing.T) {
	n := notifiertest.NewFake()
	m := New(n, &recorder{})

	require.NoError(t, m.StartMonitoring())
	assert.True(t, m.Running())
	require.NoError(t, m.StopMonitoring())
	assert.False(t, m.Running())
	assert.Equal(t, 1, n.Subscribes())
	assert.Equal(t, 1, n.Unsubscribes())
}
