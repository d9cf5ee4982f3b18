package daemon

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/events"
)

// streamEvents sends bus events to the client as server-sent events. The
// current monitor state, and the last level if there is one, are sent
// first so a new display does not have to wait for the next change.
func (d *Daemon) streamEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	id := c.GetHeader(events.SubscriberHeader)
	if id == "" {
		id = uuid.NewString()
	}
	log := logrus.WithField("subscription", id)
	log.Debug("event stream opened")
	defer log.Debug("event stream closed")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	now := time.Now().Unix()
	c.SSEvent(events.MonitorState, events.MonitorStateEvent{Running: d.monitor.Running(), Ts: now})
	if r, ok := d.monitor.Last(); ok {
		c.SSEvent(events.BatteryLevel, events.BatteryLevelEvent{Percentage: r.Percentage, Ts: r.Time.Unix()})
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}
