package gui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/charlie0129/batmon/pkg/display"
)

type fakeItem struct {
	title   string
	enabled bool
}

func (f *fakeItem) SetTitle(title string) { f.title = title }
func (f *fakeItem) Enable()               { f.enabled = true }
func (f *fakeItem) Disable()              { f.enabled = false }

type fakeController struct {
	starts, stops int
}

func (f *fakeController) StartMonitoring() error { f.starts++; return nil }
func (f *fakeController) StopMonitoring() error  { f.stops++; return nil }

func TestHandles(t *testing.T) {
	var title string
	status, start, stop := &fakeItem{}, &fakeItem{}, &fakeItem{}
	d := display.New(newHandles(func(s string) { title = s }, status, start, stop), &fakeController{})

	assert.Equal(t, "🔋 unknown", title)
	assert.Equal(t, "🔴 Monitoring: disabled", status.title)
	assert.True(t, start.enabled)
	assert.False(t, stop.enabled)

	d.ShowLevel(21)
	assert.Equal(t, "🔋 21%", title)
	d.ShowLevel(20)
	assert.Equal(t, "🪫 20%", title)

	assert.NoError(t, d.StartRequested())
	assert.Equal(t, "🟢 Monitoring: enabled", status.title)
	assert.False(t, start.enabled)
	assert.True(t, stop.enabled)
}

func TestForwardClicks(t *testing.T) {
	ctrl := &fakeController{}
	d := display.New(newHandles(func(string) {}, &fakeItem{}, &fakeItem{}, &fakeItem{}), ctrl)
	loop := display.NewLoop(4)

	ctx, cancel := context.WithCancel(context.Background())
	start, stop := make(chan struct{}), make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardClicks(ctx, loop, d, start, stop)
	}()

	start <- struct{}{}
	start <- struct{}{}
	stop <- struct{}{}
	cancel()
	<-done

	// Nothing runs until the UI context drains the loop.
	assert.Equal(t, 0, ctrl.starts)
	assert.Equal(t, 3, loop.Drain())
	assert.Equal(t, 1, ctrl.starts)
	assert.Equal(t, 1, ctrl.stops)
	assert.False(t, d.Running())
}

func TestForwardClicksCancelledOnFullLoop(t *testing.T) {
	d := display.New(newHandles(func(string) {}, &fakeItem{}, &fakeItem{}, &fakeItem{}), &fakeController{})
	loop := display.NewLoop(1)

	ctx, cancel := context.WithCancel(context.Background())
	start := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardClicks(ctx, loop, d, start, nil)
	}()

	start <- struct{}{}
	// Blocks in the post, the loop is full.
	start <- struct{}{}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwardClicks still running after cancel")
	}
	assert.Equal(t, 1, loop.Drain())
}
