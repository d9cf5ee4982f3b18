package daemon

import (
	"sync"
	"time"

	"github.com/charlie0129/batmon/pkg/battery"
	"github.com/charlie0129/batmon/pkg/events"
)

// DefaultHistorySize is one hour of readings at the default poll interval.
const DefaultHistorySize = 360

// LevelHistory records the last N battery readings.
type LevelHistory struct {
	MaxRecordCount int
	records        []battery.Reading
	mu             *sync.Mutex
	now            func() time.Time
}

// NewLevelHistory returns a new LevelHistory.
func NewLevelHistory(maxRecordCount int) *LevelHistory {
	if maxRecordCount <= 0 {
		maxRecordCount = DefaultHistorySize
	}
	return &LevelHistory{
		MaxRecordCount: maxRecordCount,
		records:        make([]battery.Reading, 0),
		mu:             &sync.Mutex{},
		now:            time.Now,
	}
}

// Add adds a new record.
func (h *LevelHistory) Add(r battery.Reading) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Strip monotonic clock reading.
	// time.Since is not accurate across system sleep otherwise.
	r.Time = r.Time.Round(0)

	if len(h.records) >= h.MaxRecordCount {
		h.records = h.records[1:]
	}
	h.records = append(h.records, r)
}

// Clear clears all records.
func (h *LevelHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = make([]battery.Reading, 0)
}

// Records returns a copy of all records, oldest first.
func (h *LevelHistory) Records() []battery.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	ret := make([]battery.Reading, len(h.records))
	copy(ret, h.records)
	return ret
}

// In returns the records from the last duration, oldest first.
func (h *LevelHistory) In(last time.Duration) []battery.Reading {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	i := len(h.records)
	for i > 0 && now.Sub(h.records[i-1].Time) <= last {
		i--
	}

	ret := make([]battery.Reading, len(h.records)-i)
	copy(ret, h.records[i:])
	return ret
}

// historyPublisher records battery levels on their way to the hub.
type historyPublisher struct {
	hub     *events.Hub
	history *LevelHistory
}

func (p historyPublisher) Publish(name string, payload any) int {
	if ev, ok := payload.(events.BatteryLevelEvent); ok && name == events.BatteryLevel {
		p.history.Add(battery.Reading{Percentage: ev.Percentage, Time: time.Unix(ev.Ts, 0)})
	}
	return p.hub.Publish(name, payload)
}
