// Package display renders battery levels and the monitoring service state
// onto a set of output handles, and forwards user start/stop requests to
// the service.
//
// A Display is not safe for concurrent use. Every method must run on the
// frontend's UI context; use Loop to get there from other goroutines.
package display

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ServiceController starts and stops the battery monitoring service.
type ServiceController interface {
	StartMonitoring() error
	StopMonitoring() error
}

// Option configures a Display.
type Option func(*Display)

// WithLowThreshold sets the highest percentage rendered as low.
func WithLowThreshold(threshold int) Option {
	return func(d *Display) {
		d.lowThreshold = threshold
	}
}

// WithRunning sets the initial service run state, for frontends attaching
// to a service that is already running.
func WithRunning(running bool) Option {
	return func(d *Display) {
		d.running = running
	}
}

type Display struct {
	handles      Handles
	ctrl         ServiceController
	lowThreshold int

	running bool
	level   *int
}

// New returns a Display and renders its initial state onto handles.
func New(handles Handles, ctrl ServiceController, opts ...Option) *Display {
	d := &Display{
		handles:      handles,
		ctrl:         ctrl,
		lowThreshold: DefaultLowThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.renderLevel()
	d.renderService()

	return d
}

// State returns what is currently rendered.
func (d *Display) State() State {
	return Derive(d.level, d.running, d.lowThreshold)
}

// Running reports the service run state.
func (d *Display) Running() bool {
	return d.running
}

// StartRequested handles a user request to start monitoring. It does
// nothing if monitoring is already enabled. If the service fails to start,
// the state is left unchanged.
func (d *Display) StartRequested() error {
	if d.running {
		logrus.Debug("start requested but monitoring is already enabled")
		return nil
	}

	if err := d.ctrl.StartMonitoring(); err != nil {
		logrus.Errorf("failed to start monitoring: %v", err)
		return pkgerrors.Wrap(err, "failed to start monitoring")
	}

	d.running = true
	d.renderService()
	return nil
}

// StopRequested mirrors StartRequested.
func (d *Display) StopRequested() error {
	if !d.running {
		logrus.Debug("stop requested but monitoring is already disabled")
		return nil
	}

	if err := d.ctrl.StopMonitoring(); err != nil {
		logrus.Errorf("failed to stop monitoring: %v", err)
		return pkgerrors.Wrap(err, "failed to stop monitoring")
	}

	d.running = false
	d.renderService()
	return nil
}

// ShowLevel renders a new battery percentage.
func (d *Display) ShowLevel(percentage int) {
	d.level = &percentage
	d.renderLevel()
}

// SyncRunning renders a run state changed by someone else, e.g. another
// client of the same daemon. The controller is not called.
func (d *Display) SyncRunning(running bool) {
	if d.running == running {
		return
	}
	d.running = running
	d.renderService()
}

func (d *Display) renderLevel() {
	s := d.State()
	d.handles.Level.SetColor(s.LevelColor)
	d.handles.Level.SetText(s.LevelText)
}

func (d *Display) renderService() {
	s := d.State()
	d.handles.Status.SetColor(s.StatusColor)
	d.handles.Status.SetText(s.StatusText)
	d.handles.Start.SetEnabled(s.StartEnabled)
	d.handles.Stop.SetEnabled(s.StopEnabled)
}
