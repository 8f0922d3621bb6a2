// Package theme holds the colors and lipgloss styles of the operator UI.
// The palette is Catppuccin Mocha with amber reserved for resistance values.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	Background = lipgloss.Color("#1e1e2e")
	Panel      = lipgloss.Color("#181825")
	Border     = lipgloss.Color("#45475a")
	Foreground = lipgloss.Color("#cdd6f4")
	Dim        = lipgloss.Color("#a6adc8")
	Highlight  = lipgloss.Color("#b4befe")
	Accent     = lipgloss.Color("#74c7ec")
	Warm       = lipgloss.Color("#fab387")
	Amber      = lipgloss.Color("#f9e2af")
	Positive   = lipgloss.Color("#a6e3a1")
	Negative   = lipgloss.Color("#f38ba8")
)

var (
	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Foreground(Foreground).
		Padding(0, 1)

	// PaneActive marks the pane that owns keyboard input.
	PaneActive = Pane.BorderForeground(Highlight)

	Overlay = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Warm).
		Background(Panel).
		Foreground(Foreground).
		Padding(0, 1)

	StatusBar = lipgloss.NewStyle().Background(Panel)

	Title = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Dim)
	Hot   = lipgloss.NewStyle().Foreground(Warm).Bold(true)
	Good  = lipgloss.NewStyle().Foreground(Positive)
	Bad   = lipgloss.NewStyle().Foreground(Negative).Bold(true)

	Frequency  = lipgloss.NewStyle().Foreground(Accent)
	Resistance = lipgloss.NewStyle().Foreground(Amber)
)
