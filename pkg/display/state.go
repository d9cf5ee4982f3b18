package display

import "strconv"

// DefaultLowThreshold is the highest percentage shown as low.
const DefaultLowThreshold = 20

const (
	TextUnknown  = "unknown"
	TextEnabled  = "enabled"
	TextDisabled = "disabled"
)

// LevelText formats a percentage for a level label.
func LevelText(p int) string {
	return strconv.Itoa(p) + "%"
}

// State is everything a frontend renders.
type State struct {
	LevelText    string
	LevelColor   Color
	StatusText   string
	StatusColor  Color
	StartEnabled bool
	StopEnabled  bool
}

// Derive computes the State for the latest level (nil if none was received
// yet) and the service run state. Levels at or below lowThreshold are red.
func Derive(level *int, running bool, lowThreshold int) State {
	s := State{
		LevelText:  TextUnknown,
		LevelColor: ColorDefault,
	}

	if level != nil {
		s.LevelText = LevelText(*level)
		s.LevelColor = ColorGreen
		if *level <= lowThreshold {
			s.LevelColor = ColorRed
		}
	}

	if running {
		s.StatusText = TextEnabled
		s.StatusColor = ColorGreen
	} else {
		s.StatusText = TextDisabled
		s.StatusColor = ColorRed
	}
	s.StartEnabled = !running
	s.StopEnabled = running

	return s
}
