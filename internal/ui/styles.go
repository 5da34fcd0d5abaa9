package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	App         lipgloss.Style
	Header      lipgloss.Style
	InsetPanel  lipgloss.Style
	StationName lipgloss.Style
	Meta        lipgloss.Style
	ListHeader  lipgloss.Style
	ListItem    lipgloss.Style
	ListActive  lipgloss.Style
	Gauge       lipgloss.Style
	KeyHint     lipgloss.Style
	Dialog      lipgloss.Style
	Strip       lipgloss.Style
	Error       lipgloss.Style
	Accent      lipgloss.Style
	Live        lipgloss.Style
	Muted       lipgloss.Style
}
