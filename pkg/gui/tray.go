package gui

import (
	"context"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/client"
	"github.com/charlie0129/batmon/pkg/display"
)

// tray wires the systray menu to a display. The display only runs on
// loop, which is driven by a single goroutine.
type tray struct {
	api    *client.Client
	loop   *display.Loop
	cancel context.CancelFunc
}

func newTray(api *client.Client) *tray {
	return &tray{
		api:  api,
		loop: display.NewLoop(display.DefaultLoopSize),
	}
}

func (t *tray) onReady() {
	systray.SetTitle(connectingTitle)
	systray.SetTooltip(trayTooltip)

	mStatus := systray.AddMenuItem("Monitoring: -", statusTooltip)
	mStatus.Disable()

	systray.AddSeparator()

	mStart := systray.AddMenuItem("Start Monitoring", startTooltip)
	mStop := systray.AddMenuItem("Stop Monitoring", stopTooltip)

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", quitTooltip)

	opts := []display.Option{}
	if conf, err := t.api.GetConfig(); err != nil {
		logrus.Warnf("failed to get config, using the default low threshold: %v", err)
	} else if conf.LowThreshold != nil {
		opts = append(opts, display.WithLowThreshold(*conf.LowThreshold))
	}

	handles := newHandles(systray.SetTitle, mStatus, mStart, mStop)
	d := display.New(handles, t.api, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go func() {
		_ = t.loop.Run(ctx)
	}()
	go forwardClicks(ctx, t.loop, d, mStart.ClickedCh, mStop.ClickedCh)
	go t.followDaemon(ctx, d)

	go func() {
		select {
		case <-mQuit.ClickedCh:
			systray.Quit()
		case <-ctx.Done():
		}
	}()
}

func (t *tray) onExit() {
	if t.cancel != nil {
		t.cancel()
	}
	t.loop.Close()
	logrus.Info("batmon tray exiting")
}

// followDaemon feeds daemon events to d, reconnecting until ctx is done.
func (t *tray) followDaemon(ctx context.Context, d *display.Display) {
	for {
		ch, err := t.api.SubscribeEvents(ctx)
		if err != nil {
			logrus.Warnf("failed to subscribe to daemon events: %v", err)
			t.loop.PostContext(ctx, func() { systray.SetTitle(offlineTitle) })
		} else {
			display.Feed(ctx, ch, t.loop, d)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(client.ReconnectInterval):
		}
	}
}

// forwardClicks turns menu clicks into start/stop requests on the loop.
func forwardClicks(ctx context.Context, loop *display.Loop, d *display.Display, start, stop <-chan struct{}) {
	for {
		var fn func()
		select {
		case <-ctx.Done():
			return
		case <-start:
			fn = func() { _ = d.StartRequested() }
		case <-stop:
			fn = func() { _ = d.StopRequested() }
		}
		if !loop.PostContext(ctx, fn) {
			return
		}
	}
}
