package client

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/distatus/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/batmon/pkg/config"
	"github.com/charlie0129/batmon/pkg/daemon"
	"github.com/charlie0129/batmon/pkg/events"
	"github.com/charlie0129/batmon/pkg/notifier"
	"github.com/charlie0129/batmon/pkg/notifier/notifiertest"
	"github.com/charlie0129/batmon/pkg/version"
)

// serve runs a daemon on a unix socket and returns a client for it.
func serve(t *testing.T) (*Client, *notifiertest.Fake) {
	t.Helper()

	// Socket paths are length limited, t.TempDir() can be too long.
	dir, err := os.MkdirTemp("", "batmon")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "batmon.sock")

	conf := config.NewFileFromConfig(nil, filepath.Join(dir, "batmon.json"))
	n := notifiertest.NewFake()
	read := func() ([]*battery.Battery, error) {
		return []*battery.Battery{{Current: 30000, Full: 60000}}, nil
	}
	d := daemon.New(conf, n, read)

	l, err := net.Listen("unix", sock)
	require.NoError(t, err)
	srv := &http.Server{Handler: d.Router()}
	go func() { _ = srv.Serve(l) }()

	t.Cleanup(func() {
		d.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return NewClient(sock), n
}

func TestDaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.GetMonitor()
	assert.ErrorIs(t, err, ErrDaemonNotRunning)
}

func TestMonitorLifecycle(t *testing.T) {
	c, n := serve(t)

	running, err := c.GetMonitor()
	require.NoError(t, err)
	assert.False(t, running)

	_, ok, err := c.GetLevel()
	require.NoError(t, err)
	assert.False(t, ok, "no level before the monitor starts")

	require.NoError(t, c.StartMonitoring())
	require.NoError(t, c.StartMonitoring())
	assert.Equal(t, 1, n.Subscribes())

	n.Emit(notifier.BatteryChanged(1, 8))
	level, ok, err := c.GetLevel()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 13, level)

	msg, err := c.SetMonitor(true)
	require.NoError(t, err)
	assert.Equal(t, "battery monitor is already enabled", msg)

	require.NoError(t, c.StopMonitoring())
	running, err = c.GetMonitor()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Equal(t, 1, n.Unsubscribes())
}

func TestSettings(t *testing.T) {
	c, _ := serve(t)

	_, err := c.SetLowThreshold(100)
	assert.Error(t, err)

	_, err = c.SetLowThreshold(30)
	require.NoError(t, err)
	_, err = c.SetAutoStart(true)
	require.NoError(t, err)

	conf, err := c.GetConfig()
	require.NoError(t, err)
	require.NotNil(t, conf.LowThreshold)
	require.NotNil(t, conf.AutoStart)
	assert.Equal(t, 30, *conf.LowThreshold)
	assert.True(t, *conf.AutoStart)

	bat, err := c.GetBatteryInfo()
	require.NoError(t, err)
	assert.Equal(t, 30000.0, bat.Current)
	assert.Equal(t, 60000.0, bat.Full)

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, version.Version, v)
}

func TestSubscribeEvents(t *testing.T) {
	c, n := serve(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.SubscribeEvents(ctx)
	require.NoError(t, err)

	next := func() events.Event {
		t.Helper()
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "stream closed")
			return ev
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
		return events.Event{}
	}

	ev := next()
	require.Equal(t, events.MonitorState, ev.Name)
	state, err := events.DecodeAs[events.MonitorStateEvent](ev)
	require.NoError(t, err)
	assert.False(t, state.Running)

	require.NoError(t, c.StartMonitoring())
	ev = next()
	require.Equal(t, events.MonitorState, ev.Name)
	state, err = events.DecodeAs[events.MonitorStateEvent](ev)
	require.NoError(t, err)
	assert.True(t, state.Running)

	n.Emit(notifier.BatteryChanged(21, 100))
	ev = next()
	require.Equal(t, events.BatteryLevel, ev.Name)
	level, err := events.DecodeAs[events.BatteryLevelEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, 21, level.Percentage)

	cancel()
	for range ch {
	}
}

func TestReadEvents(t *testing.T) {
	body := strings.NewReader("event:battery.level\ndata: {\"percentage\":5}\n\n" +
		": comment\n\n" +
		"event:monitor.state\ndata:{\"running\":true}\n\n")

	var got []events.Event
	err := readEvents(body, func(ev events.Event) bool {
		got = append(got, ev)
		return true
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.BatteryLevel, got[0].Name)
	assert.JSONEq(t, `{"percentage":5}`, string(got[0].Data))
	assert.Equal(t, events.MonitorState, got[1].Name)
	assert.JSONEq(t, `{"running":true}`, string(got[1].Data))
}

func TestGetHistory(t *testing.T) {
	c, n := serve(t)

	require.NoError(t, c.StartMonitoring())
	n.Emit(notifier.BatteryChanged(90, 100))
	n.Emit(notifier.BatteryChanged(89, 100))

	all, err := c.GetHistory(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 90, all[0].Percentage)
	assert.Equal(t, 89, all[1].Percentage)

	recent, err := c.GetHistory(time.Hour)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestStatusError(t *testing.T) {
	c, _ := serve(t)

	_, err := c.SetLowThreshold(0)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Message, "low threshold must be between")
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.Get("/no-such-route")
	assert.ErrorIs(t, err, ErrNotFound)
}
