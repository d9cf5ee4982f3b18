package client

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batmon/pkg/events"
)

// ReconnectInterval is how long frontends wait before subscribing again
// after the event stream ended or could not be opened.
const ReconnectInterval = 5 * time.Second

// SubscribeEvents streams daemon events until ctx is done or the daemon
// closes the stream. The returned channel is closed when the stream ends.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan events.Event, error) {
	id := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{
		"subscription": id,
		"unix":         c.socketPath,
	})

	req, err := http.NewRequestWithContext(ctx, "GET", "http://unix/events", nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create request")
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(events.SubscriberHeader, id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to subscribe to events")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, pkgerrors.Errorf("failed to subscribe to events: got %d", resp.StatusCode)
	}

	log.Debug("subscribed to daemon events")

	ch := make(chan events.Event, 16)
	go func() {
		defer close(ch)
		defer func() {
			if err := resp.Body.Close(); err != nil {
				log.Debugf("failed to close event stream: %v", err)
			}
		}()

		err := readEvents(resp.Body, func(ev events.Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Warnf("event stream ended: %v", err)
			return
		}
		log.Debug("event stream closed")
	}()

	return ch, nil
}

// readEvents parses a text/event-stream body, calling emit for each
// complete event until emit returns false or the body ends.
func readEvents(body io.Reader, emit func(events.Event) bool) error {
	sc := bufio.NewScanner(body)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if name != "" || len(data) > 0 {
				ev := events.Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				if !emit(ev) {
					return nil
				}
			}
			name, data = "", nil
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
