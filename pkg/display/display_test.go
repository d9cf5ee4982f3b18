package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/monitor"
	"github.com/charlie0129/batmon/pkg/notifier"
	"github.com/charlie0129/batmon/pkg/notifier/notifiertest"
)

type fakeLabel struct {
	text  string
	color Color
	sets  int
}

func (l *fakeLabel) SetText(text string) { l.text = text; l.sets++ }
func (l *fakeLabel) SetColor(c Color)    { l.color = c }

type fakeButton struct {
	enabled bool
}

func (b *fakeButton) SetEnabled(enabled bool) { b.enabled = enabled }

type fakeController struct {
	starts   int
	stops    int
	startErr error
	stopErr  error
}

func (c *fakeController) StartMonitoring() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	return nil
}

func (c *fakeController) StopMonitoring() error {
	if c.stopErr != nil {
		return c.stopErr
	}
	c.stops++
	return nil
}

type fixture struct {
	level, status *fakeLabel
	start, stop   *fakeButton
	ctrl          *fakeController
	d             *Display
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		level:  &fakeLabel{},
		status: &fakeLabel{},
		start:  &fakeButton{},
		stop:   &fakeButton{},
		ctrl:   &fakeController{},
	}
	f.d = New(Handles{Level: f.level, Status: f.status, Start: f.start, Stop: f.stop}, f.ctrl, opts...)
	return f
}

func TestDerive(t *testing.T) {
	lvl := func(i int) *int { return &i }
	tests := []struct {
		name      string
		level     *int
		running   bool
		wantText  string
		wantColor Color
	}{
		{name: "unknown", level: nil, wantText: "unknown", wantColor: ColorDefault},
		{name: "half", level: lvl(50), wantText: "50%", wantColor: ColorGreen},
		{name: "low", level: lvl(10), wantText: "10%", wantColor: ColorRed},
		{name: "boundary low", level: lvl(20), wantText: "20%", wantColor: ColorRed},
		{name: "boundary ok", level: lvl(21), wantText: "21%", wantColor: ColorGreen},
		{name: "empty", level: lvl(0), wantText: "0%", wantColor: ColorRed},
		{name: "full", level: lvl(100), running: true, wantText: "100%", wantColor: ColorGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Derive(tt.level, tt.running, DefaultLowThreshold)
			assert.Equal(t, tt.wantText, s.LevelText)
			assert.Equal(t, tt.wantColor, s.LevelColor)
			assert.NotEqual(t, s.StartEnabled, s.StopEnabled)
		})
	}
}

func TestDeriveServiceState(t *testing.T) {
	assert.Equal(t, State{
		LevelText:    TextUnknown,
		LevelColor:   ColorDefault,
		StatusText:   TextDisabled,
		StatusColor:  ColorRed,
		StartEnabled: true,
		StopEnabled:  false,
	}, Derive(nil, false, DefaultLowThreshold))

	s := Derive(nil, true, DefaultLowThreshold)
	assert.Equal(t, TextEnabled, s.StatusText)
	assert.Equal(t, ColorGreen, s.StatusColor)
	assert.False(t, s.StartEnabled)
	assert.True(t, s.StopEnabled)
}

func TestNewRendersInitialState(t *testing.T) {
	f := newFixture()

	assert.Equal(t, TextUnknown, f.level.text)
	assert.Equal(t, ColorDefault, f.level.color)
	assert.Equal(t, TextDisabled, f.status.text)
	assert.Equal(t, ColorRed, f.status.color)
	assert.True(t, f.start.enabled)
	assert.False(t, f.stop.enabled)
	assert.False(t, f.d.Running())
}

func TestShowLevel(t *testing.T) {
	f := newFixture()

	f.d.ShowLevel(50)
	assert.Equal(t, "50%", f.level.text)
	assert.Equal(t, ColorGreen, f.level.color)

	f.d.ShowLevel(10)
	assert.Equal(t, "10%", f.level.text)
	assert.Equal(t, ColorRed, f.level.color)
}

func TestCustomLowThreshold(t *testing.T) {
	f := newFixture(WithLowThreshold(30))

	f.d.ShowLevel(25)
	assert.Equal(t, ColorRed, f.level.color)
	f.d.ShowLevel(31)
	assert.Equal(t, ColorGreen, f.level.color)
}

func TestStartRequestedIdempotent(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.d.StartRequested())
	require.NoError(t, f.d.StartRequested())

	assert.Equal(t, 1, f.ctrl.starts)
	assert.True(t, f.d.Running())
	assert.Equal(t, TextEnabled, f.status.text)
	assert.Equal(t, ColorGreen, f.status.color)
	assert.False(t, f.start.enabled)
	assert.True(t, f.stop.enabled)
}

func TestStopRequestedWhileDisabled(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.d.StopRequested())
	assert.Equal(t, 0, f.ctrl.stops)
	assert.False(t, f.d.Running())
}

func TestStartStopStart(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.d.StartRequested())
	require.NoError(t, f.d.StopRequested())
	assert.Equal(t, TextDisabled, f.status.text)
	assert.Equal(t, ColorRed, f.status.color)
	assert.True(t, f.start.enabled)
	assert.False(t, f.stop.enabled)
	require.NoError(t, f.d.StartRequested())

	assert.True(t, f.d.Running())
	assert.Equal(t, 2, f.ctrl.starts)
	assert.Equal(t, 1, f.ctrl.stops)
}

func TestControllerErrorKeepsState(t *testing.T) {
	f := newFixture()
	f.ctrl.startErr = errors.New("daemon not running")

	assert.Error(t, f.d.StartRequested())
	assert.False(t, f.d.Running())
	assert.Equal(t, TextDisabled, f.status.text)

	f.ctrl.startErr = nil
	require.NoError(t, f.d.StartRequested())
	f.ctrl.stopErr = errors.New("daemon not running")
	assert.Error(t, f.d.StopRequested())
	assert.True(t, f.d.Running())
}

func TestSyncRunning(t *testing.T) {
	f := newFixture()

	f.d.SyncRunning(true)
	assert.True(t, f.d.Running())
	assert.Equal(t, TextEnabled, f.status.text)
	assert.Equal(t, 0, f.ctrl.starts)

	// Already enabled, so a start request is a no-op.
	require.NoError(t, f.d.StartRequested())
	assert.Equal(t, 0, f.ctrl.starts)
}

func TestWithRunning(t *testing.T) {
	f := newFixture(WithRunning(true))
	assert.Equal(t, TextEnabled, f.status.text)
	assert.False(t, f.start.enabled)
	assert.True(t, f.stop.enabled)
}

func TestLoopDrain(t *testing.T) {
	l := NewLoop(4)
	var got []int
	for i := 0; i < 3; i++ {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 0, l.Drain())
}

func TestLoopClose(t *testing.T) {
	l := NewLoop(1)
	l.Close()
	l.Close()
	assert.False(t, l.Post(func() {}))
	assert.NoError(t, l.Run(context.Background()))
}

func TestLoopRun(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	ran := make(chan struct{})
	require.True(t, l.Post(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestLoopPostContext(t *testing.T) {
	l := NewLoop(1)
	require.True(t, l.PostContext(context.Background(), func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, l.PostContext(ctx, func() {}), "full queue")
	assert.False(t, l.PostContext(ctx, func() {}), "ctx already done")
	assert.Equal(t, 1, l.Drain())
}

func TestFeedStopsWhenCancelledOnFullLoop(t *testing.T) {
	f := newFixture()
	loop := NewLoop(1)

	ch := make(chan events.Event, 3)
	for _, p := range []int{10, 20, 30} {
		ch <- events.Event{Name: events.BatteryLevel, Data: []byte(fmt.Sprintf(`{"percentage":%d}`, p))}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		Feed(ctx, ch, loop, f.d)
	}()

	// The first event fills the loop, the second blocks.
	require.Eventually(t, func() bool { return len(ch) <= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Feed still running after cancel")
	}

	// Nothing was lost from the queue, and nothing runs after it.
	assert.Equal(t, 1, loop.Drain())
	assert.Equal(t, "10%", f.level.text)
}

// monitorController drives an in-process monitor the way the tui command
// does.
type monitorController struct {
	m *monitor.Monitor
}

func (c monitorController) StartMonitoring() error { return c.m.Start(context.Background()) }
func (c monitorController) StopMonitoring() error  { return c.m.Stop() }

func TestPipeline(t *testing.T) {
	n := notifiertest.NewFake()
	hub := events.NewHub()
	m := monitor.New(n, hub)
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	level, status := &fakeLabel{}, &fakeLabel{}
	d := New(Handles{Level: level, Status: status, Start: &fakeButton{}, Stop: &fakeButton{}}, monitorController{m: m})
	loop := NewLoop(DefaultLoopSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		Feed(ctx, ch, loop, d)
	}()

	require.NoError(t, d.StartRequested())

	n.Emit(notifier.BatteryChanged(50, 100))
	require.Eventually(t, func() bool {
		loop.Drain()
		return level.text == "50%"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ColorGreen, level.color)

	n.Emit(notifier.BatteryChanged(10, 100))
	require.Eventually(t, func() bool {
		loop.Drain()
		return level.text == "10%"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ColorRed, level.color)

	sets := level.sets
	n.Emit(notifier.BatteryChanged(-1, 100))
	time.Sleep(50 * time.Millisecond)
	loop.Drain()
	assert.Equal(t, "10%", level.text)
	assert.Equal(t, sets, level.sets)

	require.NoError(t, d.StopRequested())
	loop.Drain()
	assert.Equal(t, TextDisabled, status.text)

	cancel()
	wg.Wait()
}

func TestApplyIgnoresUnknownEvents(t *testing.T) {
	f := newFixture()
	assert.Nil(t, Apply(events.Event{Name: "calibration.phase"}, f.d))
	assert.Nil(t, Apply(events.Event{Name: events.BatteryLevel, Data: []byte("{")}, f.d))

	fn := Apply(events.Event{Name: events.BatteryLevel, Data: []byte(`{"percentage":42}`)}, f.d)
	require.NotNil(t, fn)
	fn()
	assert.Equal(t, "42%", f.level.text)
}
