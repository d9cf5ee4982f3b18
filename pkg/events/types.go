package events

import "encoding/json"

// Event name constants
const (
	// BatteryLevel carries a BatteryLevelEvent.
	BatteryLevel = "battery.level"
	// MonitorState carries a MonitorStateEvent.
	MonitorState = "monitor.state"
)

// SubscriberHeader identifies an event stream subscriber in daemon logs.
const SubscriberHeader = "X-Batmon-Subscriber"

// Event is a named event on the bus, also sent to remote displays over SSE.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// BatteryLevelEvent is the typed payload for battery.level.
type BatteryLevelEvent struct {
	Percentage int   `json:"percentage"`
	Ts         int64 `json:"ts"`
}

// MonitorStateEvent is the typed payload for monitor.state.
type MonitorStateEvent struct {
	Running bool  `json:"running"`
	Ts      int64 `json:"ts"`
}

// DecodeAs unmarshals the payload of e into T. An empty payload gives the
// zero T.
func DecodeAs[T any](e Event) (T, error) {
	var v T
	if len(e.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
