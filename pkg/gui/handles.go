package gui

import (
	"github.com/charlie0129/batmon/pkg/display"
)

// menuItem is the part of *systray.MenuItem the display needs.
type menuItem interface {
	SetTitle(title string)
	Enable()
	Disable()
}

// textLabel renders a label through a title setter. Tray titles have no
// color, so the color becomes a marker in front of the text.
type textLabel struct {
	set    func(string)
	format func(text string, c display.Color) string

	text  string
	color display.Color
}

func (l *textLabel) SetText(text string) {
	l.text = text
	l.set(l.format(l.text, l.color))
}

func (l *textLabel) SetColor(c display.Color) {
	l.color = c
	l.set(l.format(l.text, l.color))
}

func levelTitle(text string, c display.Color) string {
	if c == display.ColorRed {
		return "🪫 " + text
	}
	return "🔋 " + text
}

func statusTitle(text string, c display.Color) string {
	switch c {
	case display.ColorGreen:
		return "🟢 Monitoring: " + text
	case display.ColorRed:
		return "🔴 Monitoring: " + text
	default:
		return "Monitoring: " + text
	}
}

type menuButton struct {
	item menuItem
}

func (b menuButton) SetEnabled(enabled bool) {
	if enabled {
		b.item.Enable()
	} else {
		b.item.Disable()
	}
}

func newHandles(setTitle func(string), status, start, stop menuItem) display.Handles {
	return display.Handles{
		Level:  &textLabel{set: setTitle, format: levelTitle},
		Status: &textLabel{set: status.SetTitle, format: statusTitle},
		Start:  menuButton{item: start},
		Stop:   menuButton{item: stop},
	}
}
