package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"netradio/internal/config"
	"netradio/internal/playback"
)

// Cell size used to turn the stored window size into terminal cells.
const (
	cellWidthPx  = 8
	cellHeightPx = 16
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.hidden {
		return m.renderStrip(m.width)
	}

	boxWidth, boxHeight := boxSize(m.window, m.width, m.height)
	contentWidth := max(boxWidth-4, 10)
	if contentWidth > m.width {
		contentWidth = m.width
	}

	switch m.screen {
	case screenHelp:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	case screenAdd:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderAddDialog(contentWidth))
	case screenOptions:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderOptionsDialog(contentWidth))
	}

	header := m.renderHeader(contentWidth)
	meta := m.styles.InsetPanel.Width(contentWidth).Render(m.renderNowPlaying(innerWidthForPanel(contentWidth)))
	gauge := m.renderVolume(contentWidth)
	keyHints := m.styles.KeyHint.Width(contentWidth).Render(m.renderKeyHints(contentWidth))

	var errLine string
	if m.errMsg != "" {
		errLine = m.styles.Error.Width(contentWidth).Render(truncateText(m.errMsg, contentWidth))
	}

	appPadding := 2
	used := lipgloss.Height(header) + lipgloss.Height(meta) + lipgloss.Height(gauge) + lipgloss.Height(keyHints)
	if errLine != "" {
		used += lipgloss.Height(errLine)
	}
	listItems := max(boxHeight-used-appPadding-1, 1)

	sections := []string{header, meta, gauge, m.renderList(contentWidth, listItems), keyHints}
	if errLine != "" {
		sections = append(sections, errLine)
	}
	view := m.styles.App.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
}

// boxSize converts a pixel window size to cells, clamped to the terminal.
func boxSize(size config.WindowSize, termWidth, termHeight int) (int, int) {
	w := size.Width / cellWidthPx
	h := size.Height / cellHeightPx
	if termWidth > 0 && w > termWidth {
		w = termWidth
	}
	if termHeight > 0 && h > termHeight {
		h = termHeight
	}
	return w, h
}

func (m Model) renderHeader(width int) string {
	status := "IDLE"
	statusStyle := m.styles.Muted
	switch m.status.State {
	case playback.Playing:
		status = "LIVE"
		statusStyle = m.styles.Live
	case playback.Stopped:
		status = "STOPPED"
	}

	right := statusStyle.Render(status)
	return m.styles.Header.Width(width).Render(joinHeader("NETRADIO", right, width))
}

func (m Model) renderNowPlaying(width int) string {
	station := fallback(m.status.Station, "No station")
	text := m.status.NowPlaying
	if m.status.State != playback.Playing {
		text = fallback(text, "Not playing")
	}
	lines := []string{
		m.styles.StationName.Render(truncateText(station, width)),
		m.styles.Meta.Render(truncateText(fallback(text, station), width)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderVolume(width int) string {
	label := fmt.Sprintf("VOL %3d%% ", m.status.Volume)
	barWidth := max(width-len(label)-2, 4)
	return m.styles.Accent.Render(label) + m.styles.Gauge.Render(volumeBar(m.status.Volume, barWidth))
}

func volumeBar(level, width int) string {
	if width <= 0 {
		return ""
	}
	level = config.ClampVolume(level)
	filled := level * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m Model) renderList(width int, maxItems int) string {
	lines := []string{m.styles.ListHeader.Render("Stations")}
	if len(m.stations) == 0 {
		lines = append(lines, m.styles.Muted.Render("No stations. Press A to add one."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	start, end := listWindow(len(m.stations), m.selected, maxItems)
	lineWidth := max(width, 4)

	for i := start; i < end; i++ {
		name := m.stations[i]
		marker := "  "
		style := m.styles.ListItem
		if i == m.selected {
			marker = "> "
			style = m.styles.ListActive
		}

		live := ""
		if m.status.State == playback.Playing && name == m.status.Station {
			live = " ♪"
		}
		name = truncateText(name, max(lineWidth-2-len(live), 4))
		lines = append(lines, style.Width(lineWidth).MaxWidth(lineWidth).Render(marker+name+live))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderKeyHints(width int) string {
	if width < 30 {
		return "Enter Play  ? Help"
	}
	if width < 50 {
		return "Enter Play  S Stop  +/- Vol  ? Help"
	}
	return "Enter Play  S Stop  +/- Volume  A Add  O Options  ? Help  Q Hide"
}

// renderStrip is the one-line view shown while the player is hidden.
func (m Model) renderStrip(width int) string {
	text := "NetRadio"
	if m.status.State == playback.Playing {
		text = fmt.Sprintf("NetRadio ♪ %s", fallback(m.status.NowPlaying, m.status.Station))
	}
	line := truncateText(text+"  (any key to open)", max(width-2, 4))
	return m.styles.Strip.Width(width).MaxWidth(width).Render(line)
}

func (m Model) renderHelp() string {
	lines := []string{
		m.styles.ListHeader.Render("Controls"),
		"",
		"Up/Down      Select station",
		"Enter        Play station",
		"S / Space    Stop",
		"Left/Right   Volume -/+5",
		"A            Add station",
		"O            Options",
		"?            Close help",
		"Q / Esc      Hide player",
		"Ctrl+C       Exit",
	}
	return m.styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderAddDialog(width int) string {
	lines := []string{
		m.styles.ListHeader.Render("Add Radio"),
		"",
		m.add.name.View(),
		m.add.url.View(),
		"",
	}
	if m.add.lookingUp {
		lines = append(lines, m.styles.Muted.Render("Looking up station..."))
	}
	if m.add.err != "" {
		lines = append(lines, m.styles.Error.Render(m.add.err))
	}
	hint := "Enter save  Tab switch  Esc cancel"
	if m.finder != nil {
		hint = "Enter save  Tab switch  Ctrl+F find URL  Esc cancel"
	}
	lines = append(lines, m.styles.Muted.Render(truncateText(hint, max(width-6, 10))))
	return m.styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderOptionsDialog(width int) string {
	marker := func(field int) string {
		if m.options.focus == field {
			return "> "
		}
		return "  "
	}

	appearance := "Dark"
	if m.options.appearance == config.AppearanceLight {
		appearance = "Light"
	}
	lines := []string{
		m.styles.ListHeader.Render("Options"),
		"",
		marker(optFocusAppearance) + "Appearance: " + m.styles.Accent.Render("< "+appearance+" >"),
		marker(optFocusWidth) + m.options.width.View(),
		marker(optFocusHeight) + m.options.height.View(),
		"",
	}
	if m.options.err != "" {
		lines = append(lines, m.styles.Error.Render(m.options.err))
	}
	lines = append(lines, m.styles.Muted.Render(truncateText("Enter save  Tab next  Esc cancel", max(width-6, 10))))
	return m.styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func joinHeader(left, right string, width int) string {
	if width <= 0 {
		return ""
	}

	rightWidth := lipgloss.Width(right)
	if rightWidth >= width {
		return truncateText(right, width)
	}

	maxLeft := width - rightWidth - 1
	left = truncateText(left, maxLeft)
	space := max(width-lipgloss.Width(left)-rightWidth, 1)
	return left + strings.Repeat(" ", space) + right
}

func listWindow(length, selected, max int) (int, int) {
	if length <= max {
		return 0, length
	}
	start := selected - max/2
	if start < 0 {
		start = 0
	}
	end := start + max
	if end > length {
		end = length
		start = end - max
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func truncateText(value string, maxLen int) string {
	value = strings.TrimSpace(value)
	if maxLen <= 0 {
		return ""
	}
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return value[:maxLen]
	}
	return value[:maxLen-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func innerWidthForPanel(width int) int {
	inner := width - 6
	if inner < 4 {
		inner = max(width-2, 2)
	}
	if inner > width {
		inner = width
	}
	return inner
}
