package display

// Color is the color of a label.
type Color int

const (
	ColorDefault Color = iota
	ColorGreen
	ColorRed
)

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorRed:
		return "red"
	default:
		return "default"
	}
}

// Label is a text output handle.
type Label interface {
	SetText(text string)
	SetColor(c Color)
}

// Button is a control output handle.
type Button interface {
	SetEnabled(enabled bool)
}

// Handles are the output handles owned by a Display. A frontend creates
// them and hands them over; afterwards only the Display writes to them.
type Handles struct {
	Level  Label  // battery percentage
	Status Label  // service run state
	Start  Button // starts monitoring
	Stop   Button // stops monitoring
}
