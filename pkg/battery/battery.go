package battery

import "time"

// MaxPercentage is the upper bound of any reading.
const MaxPercentage = 100

// Reading is a normalized battery level computed from a single
// battery-changed notification.
type Reading struct {
	Percentage int       `json:"percentage"`
	Time       time.Time `json:"time"`
}

// Percentage converts the raw level/scale pair reported by the OS into a
// percentage in [0, 100]. It returns false if the pair cannot produce a
// reading, i.e. scale <= 0 or level < 0.
//
// Halves are rounded up, so level=1 scale=8 (12.5%) gives 13.
func Percentage(level, scale int) (int, bool) {
	if scale <= 0 || level < 0 {
		return 0, false
	}

	// Some controllers report a level above the scale when the battery
	// is full. Treat that as full instead of overflowing the range.
	if level >= scale {
		return MaxPercentage, true
	}

	l, s := int64(level), int64(scale)
	// floor(l*100/s + 1/2) without floating point.
	p := (l*200 + s) / (2 * s)

	return int(p), true
}

// NewReading returns a Reading for the level/scale pair, stamped with now.
func NewReading(level, scale int, now time.Time) (Reading, bool) {
	p, ok := Percentage(level, scale)
	if !ok {
		return Reading{}, false
	}
	// Strip monotonic clock reading.
	return Reading{Percentage: p, Time: now.Round(0)}, true
}
