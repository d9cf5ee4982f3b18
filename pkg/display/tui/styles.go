package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/batmon/pkg/display"
)

var (
	greenColor = lipgloss.Color("#10B981")
	redColor   = lipgloss.Color("#F87171")
	mutedColor = lipgloss.Color("#9CA3AF")

	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle    = lipgloss.NewStyle().Foreground(redColor)
	boxStyle      = lipgloss.NewStyle().Padding(1, 2)
	enabledButton = lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder())
	// Disabled buttons keep the border so the layout does not jump.
	disabledButton = enabledButton.Bold(false).Foreground(mutedColor).BorderForeground(mutedColor)
)

func colorStyle(c display.Color) lipgloss.Style {
	switch c {
	case display.ColorGreen:
		return lipgloss.NewStyle().Foreground(greenColor)
	case display.ColorRed:
		return lipgloss.NewStyle().Foreground(redColor)
	default:
		return lipgloss.NewStyle()
	}
}
