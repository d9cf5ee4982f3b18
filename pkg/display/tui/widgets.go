package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/charlie0129/batmon/pkg/display"
)

// label and button hold what the display last rendered. They are only
// touched from Update, which is the UI context of the program.
type label struct {
	text  string
	color display.Color
}

func (l *label) SetText(text string)      { l.text = text }
func (l *label) SetColor(c display.Color) { l.color = c }

func (l *label) view() string {
	return colorStyle(l.color).Render(l.text)
}

type button struct {
	binding key.Binding
	enabled bool
}

func (b *button) SetEnabled(enabled bool) { b.enabled = enabled }

func (b *button) view() string {
	h := b.binding.Help()
	text := h.Key + " " + h.Desc
	if b.enabled {
		return enabledButton.Render(text)
	}
	return disabledButton.Render(text)
}
