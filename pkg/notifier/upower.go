package notifier

import (
	"context"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	upowerBusName       = "org.freedesktop.UPower"
	upowerDeviceIface   = "org.freedesktop.UPower.Device"
	upowerDisplayDevice = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")

	propsIface  = "org.freedesktop.DBus.Properties"
	propsMember = "PropertiesChanged"
	propsSignal = propsIface + "." + propsMember
)

// UPower delivers the state of the UPower display device, which aggregates
// all system batteries. Level is Energy and Scale is EnergyFull, in mWh.
type UPower struct {
	conn *dbus.Conn
}

var _ Notifier = &UPower{}

// NewUPower connects to the system bus and checks that UPower is there.
func NewUPower() (*UPower, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to system bus")
	}

	// Quick check that UPower is on the bus.
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		_ = conn.Close()
		return nil, pkgerrors.Wrap(err, "failed to list bus names")
	}
	for _, n := range names {
		if n == upowerBusName {
			return &UPower{conn: conn}, nil
		}
	}

	_ = conn.Close()
	return nil, ErrUPowerUnavailable
}

func (u *UPower) Close() error {
	return u.conn.Close()
}

func (u *UPower) matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(upowerDisplayDevice),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember(propsMember),
	}
}

func (u *UPower) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	if err := u.conn.AddMatchSignalContext(ctx, u.matchOptions()...); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to add match for upower signals")
	}

	sigCh := make(chan *dbus.Signal, 16)
	u.conn.Signal(sigCh)

	stopCh := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Deliver the current state first, like a sticky broadcast.
		h(u.readEvent(context.Background()))
		u.watch(sigCh, stopCh, h)
	}()

	logrus.WithField("path", upowerDisplayDevice).Debug("subscribed to upower display device")

	return NewSubscription(func() error {
		close(stopCh)
		wg.Wait()
		u.conn.RemoveSignal(sigCh)
		err := u.conn.RemoveMatchSignal(u.matchOptions()...)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to remove match for upower signals")
		}
		logrus.WithField("path", upowerDisplayDevice).Debug("unsubscribed from upower display device")
		return nil
	}), nil
}

func (u *UPower) watch(sigCh <-chan *dbus.Signal, stopCh <-chan struct{}, h Handler) {
	for {
		select {
		case <-stopCh:
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}
			if !isDisplayDeviceChange(sig) {
				continue
			}
			h(u.readEvent(context.Background()))
		}
	}
}

// isDisplayDeviceChange reports whether sig is a PropertiesChanged signal
// for the display device interface.
func isDisplayDeviceChange(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != propsSignal || sig.Path != upowerDisplayDevice {
		return false
	}
	// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
	if len(sig.Body) < 1 {
		return false
	}
	iface, ok := sig.Body[0].(string)
	return ok && iface == upowerDeviceIface
}

func (u *UPower) readEvent(ctx context.Context) *Event {
	return BatteryChanged(u.readMilliwattHours(ctx, "Energy"), u.readMilliwattHours(ctx, "EnergyFull"))
}

// readMilliwattHours reads a Wh property of the display device and converts
// it to mWh. It returns MissingField if the property cannot be read.
func (u *UPower) readMilliwattHours(ctx context.Context, prop string) int {
	obj := u.conn.Object(upowerBusName, upowerDisplayDevice)

	var v dbus.Variant
	err := obj.CallWithContext(ctx, propsIface+".Get", 0, upowerDeviceIface, prop).Store(&v)
	if err != nil {
		logrus.WithField("property", prop).Debugf("failed to read upower property: %v", err)
		return MissingField
	}

	wh, ok := v.Value().(float64)
	if !ok || math.IsNaN(wh) || math.IsInf(wh, 0) {
		logrus.WithFields(logrus.Fields{
			"property": prop,
			"value":    v.String(),
		}).Debug("unexpected upower property value")
		return MissingField
	}

	return int(math.Round(wh * 1000))
}
