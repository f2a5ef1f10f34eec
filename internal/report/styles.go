package report

import "github.com/charmbracelet/lipgloss"

// Palette in ANSI 256 colors so output stays stable across terminal themes.
const (
	colorAccent = lipgloss.Color("39")
	colorLabel  = lipgloss.Color("111")
	colorValue  = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("244")
	colorBorder = lipgloss.Color("240")
	colorInk    = lipgloss.Color("16")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorInk).
			Background(colorAccent).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(colorAccent).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().Foreground(colorLabel)
	valueStyle = lipgloss.NewStyle().Foreground(colorValue).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	barStyle       = lipgloss.NewStyle().Foreground(colorAccent)
	sparklineStyle = barStyle

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)
