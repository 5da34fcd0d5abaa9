package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"netradio/internal/config"
	"netradio/internal/directory"
	"netradio/internal/playback"
)

type addDialog struct {
	name      textinput.Model
	url       textinput.Model
	focus     int
	err       string
	lookingUp bool
}

type optionsDialog struct {
	appearance config.AppearanceMode
	width      textinput.Model
	height     textinput.Model
	focus      int
	err        string
}

const (
	optFocusAppearance = iota
	optFocusWidth
	optFocusHeight
	optFieldCount
)

func newAddDialog() addDialog {
	name := textinput.New()
	name.Prompt = "Name: "
	name.Placeholder = "Heart 90s"
	name.Width = 28

	url := textinput.New()
	url.Prompt = "URL:  "
	url.Placeholder = "https://..."
	url.Width = 28

	return addDialog{name: name, url: url}
}

func newOptionsDialog() optionsDialog {
	width := textinput.New()
	width.Prompt = "Width:  "
	width.CharLimit = 5
	width.Width = 8

	height := textinput.New()
	height.Prompt = "Height: "
	height.CharLimit = 5
	height.Width = 8

	return optionsDialog{width: width, height: height}
}

func (m Model) openAddDialog() (tea.Model, tea.Cmd) {
	m.add = newAddDialog()
	m.add.name.Focus()
	m.screen = screenAdd
	return m, textinput.Blink
}

func (m Model) openOptionsDialog() (tea.Model, tea.Cmd) {
	m.options = newOptionsDialog()
	m.options.appearance = m.settings.Appearance()
	m.options.width.SetValue(strconv.Itoa(m.window.Width))
	m.options.height.SetValue(strconv.Itoa(m.window.Height))
	m.screen = screenOptions
	return m, nil
}

func (m *Model) closeDialog() {
	m.add.name.Blur()
	m.add.url.Blur()
	m.options.width.Blur()
	m.options.height.Blur()
	m.screen = screenMain
}

func (m Model) updateAddDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeDialog()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.add.focus = 1 - m.add.focus
		m.focusAddField()
		return m, textinput.Blink
	case "ctrl+f":
		return m.startLookup()
	case "enter":
		name := strings.TrimSpace(m.add.name.Value())
		url := strings.TrimSpace(m.add.url.Value())
		switch {
		case name == "":
			m.add.err = "Enter a station name"
			return m, nil
		case url == "":
			m.add.err = "Enter a stream URL"
			return m, nil
		}
		m.add.err = ""
		return m, m.executeCmd(playback.AddStation{Name: name, URL: url})
	}

	var cmd tea.Cmd
	if m.add.focus == 0 {
		m.add.name, cmd = m.add.name.Update(msg)
	} else {
		m.add.url, cmd = m.add.url.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusAddField() {
	if m.add.focus == 0 {
		m.add.url.Blur()
		m.add.name.Focus()
		return
	}
	m.add.name.Blur()
	m.add.url.Focus()
}

// startLookup asks the station directory for the typed name.
func (m Model) startLookup() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.add.name.Value())
	if m.finder == nil || m.add.lookingUp {
		return m, nil
	}
	if name == "" {
		m.add.err = "Enter a station name to look up"
		return m, nil
	}

	m.add.lookingUp = true
	m.add.err = ""
	finder := m.finder
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		station, err := finder.Lookup(ctx, name)
		return lookupMsg{name: name, station: station, err: err}
	}
}

func (m Model) handleLookup(msg lookupMsg) (tea.Model, tea.Cmd) {
	m.add.lookingUp = false
	if m.screen != screenAdd {
		return m, nil
	}
	if msg.err != nil {
		m.log.Info("station lookup failed", zap.String("name", msg.name), zap.Error(msg.err))
		if errors.Is(msg.err, directory.ErrNoMatch) {
			m.add.err = "No station found for " + msg.name
		} else {
			m.add.err = "Lookup failed: " + msg.err.Error()
		}
		return m, nil
	}

	m.add.url.SetValue(msg.station.StreamURL())
	m.add.err = ""
	m.add.focus = 1
	m.focusAddField()
	return m, nil
}

func (m Model) updateOptionsDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeDialog()
		return m, nil
	case "tab", "down":
		m.options.focus = (m.options.focus + 1) % optFieldCount
		m.focusOptionsField()
		return m, nil
	case "shift+tab", "up":
		m.options.focus = (m.options.focus + optFieldCount - 1) % optFieldCount
		m.focusOptionsField()
		return m, nil
	case "enter":
		return m.applyOptions()
	}

	switch m.options.focus {
	case optFocusAppearance:
		switch msg.String() {
		case "left", "right", " ", "h", "l":
			if m.options.appearance == config.AppearanceDark {
				m.options.appearance = config.AppearanceLight
			} else {
				m.options.appearance = config.AppearanceDark
			}
		}
		return m, nil
	case optFocusWidth:
		var cmd tea.Cmd
		m.options.width, cmd = m.options.width.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.options.height, cmd = m.options.height.Update(msg)
		return m, cmd
	}
}

func (m *Model) focusOptionsField() {
	m.options.width.Blur()
	m.options.height.Blur()
	switch m.options.focus {
	case optFocusWidth:
		m.options.width.Focus()
	case optFocusHeight:
		m.options.height.Focus()
	}
}

// applyOptions validates every field before anything is stored.
func (m Model) applyOptions() (tea.Model, tea.Cmd) {
	size, err := parseWindowSize(m.options.width.Value(), m.options.height.Value())
	if err != nil {
		m.options.err = err.Error()
		return m, nil
	}
	mode := m.options.appearance
	if !mode.Valid() {
		mode = config.AppearanceDark
	}

	m.window = size
	m.theme = ThemeFor(mode)
	m.styles = BuildStyles(m.theme)
	m.closeDialog()

	settings := m.settings
	return m, func() tea.Msg {
		if err := settings.SetAppearance(mode); err != nil {
			return settingsSavedMsg{err: err}
		}
		return settingsSavedMsg{err: settings.SetWindowSize(size.Width, size.Height)}
	}
}

func parseWindowSize(width, height string) (config.WindowSize, error) {
	w, err := strconv.Atoi(strings.TrimSpace(width))
	if err != nil {
		return config.WindowSize{}, &config.ValidationError{Field: "width", Reason: "must be a whole number"}
	}
	h, err := strconv.Atoi(strings.TrimSpace(height))
	if err != nil {
		return config.WindowSize{}, &config.ValidationError{Field: "height", Reason: "must be a whole number"}
	}
	size := config.WindowSize{Width: w, Height: h}
	if err := size.Validate(); err != nil {
		return config.WindowSize{}, err
	}
	return size, nil
}
