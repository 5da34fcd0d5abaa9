package ui

import (
	"github.com/charmbracelet/lipgloss"

	"netradio/internal/config"
)

// Theme defines a set of semantic colors used to build the UI styles.
type Theme struct {
	Name      string
	Mode      config.AppearanceMode
	Fg        string // primary text, station names
	Accent    string // labels, active items, inset borders
	Secondary string // header bg, panel borders, help bg
	Bg        string // app background, active item text
	Success   string // volume gauge, live marker
	Muted     string // hints, metadata
	Error     string // error messages
}

// Themes holds one theme per appearance mode, dark first.
var Themes = []Theme{
	themeDark(),
	themeLight(),
}

// ThemeFor returns the theme for mode, falling back to dark.
func ThemeFor(mode config.AppearanceMode) Theme {
	for _, t := range Themes {
		if t.Mode == mode {
			return t
		}
	}
	return Themes[0]
}

// BuildStyles constructs the full Styles set from a theme.
func BuildStyles(t Theme) Styles {
	fg := lipgloss.Color(t.Fg)
	accent := lipgloss.Color(t.Accent)
	secondary := lipgloss.Color(t.Secondary)
	bg := lipgloss.Color(t.Bg)
	success := lipgloss.Color(t.Success)
	muted := lipgloss.Color(t.Muted)
	errColor := lipgloss.Color(t.Error)

	border := lipgloss.RoundedBorder()

	return Styles{
		App: lipgloss.NewStyle().
			Border(border).
			BorderForeground(secondary).
			Padding(0, 1).
			Foreground(fg).
			Background(bg),
		Header: lipgloss.NewStyle().
			Foreground(fg).
			Background(secondary).
			Padding(0, 1).
			Bold(true),
		InsetPanel: lipgloss.NewStyle().
			Border(border).
			BorderForeground(accent).
			Padding(0, 1),
		StationName: lipgloss.NewStyle().
			Foreground(fg).
			Bold(true),
		Meta: lipgloss.NewStyle().
			Foreground(muted),
		ListHeader: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		ListItem: lipgloss.NewStyle().
			Foreground(fg),
		ListActive: lipgloss.NewStyle().
			Foreground(bg).
			Background(accent).
			Bold(true),
		Gauge: lipgloss.NewStyle().
			Foreground(success),
		KeyHint: lipgloss.NewStyle().
			Foreground(muted),
		Dialog: lipgloss.NewStyle().
			Border(border).
			BorderForeground(accent).
			Padding(1, 2).
			Background(secondary).
			Foreground(fg),
		Strip: lipgloss.NewStyle().
			Foreground(fg).
			Background(secondary).
			Padding(0, 1),
		Error: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
		Accent: lipgloss.NewStyle().
			Foreground(accent),
		Live: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
	}
}

func themeDark() Theme {
	return Theme{
		Name:      "Dark",
		Mode:      config.AppearanceDark,
		Fg:        "#F5E6C8",
		Accent:    "#D9A441",
		Secondary: "#6E4A2F",
		Bg:        "#2B1A12",
		Success:   "#6A8F4E",
		Muted:     "#B89C7A",
		Error:     "#F29F8E",
	}
}

func themeLight() Theme {
	return Theme{
		Name:      "Light",
		Mode:      config.AppearanceLight,
		Fg:        "#4C4F69",
		Accent:    "#8839EF",
		Secondary: "#CCD0DA",
		Bg:        "#EFF1F5",
		Success:   "#40A02B",
		Muted:     "#9CA0B0",
		Error:     "#D20F39",
	}
}
