package notifier

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is used when a non-positive interval is given.
const DefaultPollInterval = 10 * time.Second

// BatteryReader returns the batteries of the system.
type BatteryReader func() ([]*battery.Battery, error)

// Poll reads the power_supply state on a fixed schedule and reports it
// when it changes. It is the fallback on systems without UPower.
type Poll struct {
	interval time.Duration
	read     BatteryReader
}

var _ Notifier = &Poll{}

// NewPoll returns a Poll reading all batteries every interval.
func NewPoll(interval time.Duration) *Poll {
	return NewPollWithReader(interval, battery.GetAll)
}

// NewPollWithReader is like NewPoll with a custom reader.
func NewPollWithReader(interval time.Duration, read BatteryReader) *Poll {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poll{interval: interval, read: read}
}

func (p *Poll) Close() error { return nil }

func (p *Poll) Subscribe(_ context.Context, h Handler) (Subscription, error) {
	w := &pollWatcher{read: p.read, handler: h}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logrus.StandardLogger()))))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", p.interval), w.tick)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to schedule battery poll every %s", p.interval)
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.tick()
	}()
	c.Start()

	logrus.WithField("interval", p.interval).Debug("polling battery state")

	return NewSubscription(func() error {
		// Wait for running jobs so nothing is delivered after return.
		<-c.Stop().Done()
		wg.Wait()
		logrus.Debug("stopped polling battery state")
		return nil
	}), nil
}

type pollWatcher struct {
	read    BatteryReader
	handler Handler

	mu        sync.Mutex
	delivered bool
	last      Event
}

// tick reads the batteries and calls the handler if the level/scale pair
// differs from the last one delivered.
func (w *pollWatcher) tick() {
	w.mu.Lock()
	defer w.mu.Unlock()

	ev := w.readEvent()
	if w.delivered && *ev == w.last {
		return
	}
	w.delivered = true
	w.last = *ev

	w.handler(ev)
}

func (w *pollWatcher) readEvent() *Event {
	batteries, err := w.read()
	if err != nil && len(batteries) == 0 {
		logrus.Debugf("failed to read batteries: %v", err)
		return BatteryChanged(MissingField, MissingField)
	}

	var current, full float64
	found := false
	for _, b := range batteries {
		// Partial errors leave nil entries.
		if b == nil {
			continue
		}
		current += b.Current
		full += b.Full
		found = true
	}
	if !found {
		return BatteryChanged(MissingField, MissingField)
	}

	return BatteryChanged(int(math.Round(current)), int(math.Round(full)))
}
