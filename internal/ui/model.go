package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"netradio/internal/config"
	"netradio/internal/directory"
	"netradio/internal/mpris"
	"netradio/internal/playback"
	"netradio/internal/tray"
)

const (
	volumeStep     = 5
	commandTimeout = 20 * time.Second
	lookupTimeout  = 15 * time.Second

	// DefaultAutoPlayDelay is how long after start the last station resumes.
	DefaultAutoPlayDelay = 500 * time.Millisecond
)

type screen int

const (
	screenMain screen = iota
	screenHelp
	screenAdd
	screenOptions
)

// Controller is the part of playback.Controller the shell drives.
type Controller interface {
	Execute(ctx context.Context, cmd playback.Command) error
	Events() <-chan playback.Event
	Status() playback.Status
}

// StationFinder looks a station up by name in an online directory.
type StationFinder interface {
	Lookup(ctx context.Context, name string) (directory.Station, error)
}

// Options wires the shell to the rest of the process.
type Options struct {
	Log        *zap.Logger
	Controller Controller
	Settings   *config.Settings
	Finder     StationFinder
	Tray       <-chan tray.Action
	// OnStatus is told about every playback status the shell renders.
	OnStatus func(playback.Status)
	// StartupErr is shown once, e.g. a damaged settings file.
	StartupErr    error
	AutoPlayDelay time.Duration
	// DisableIPC skips the control socket, for tests.
	DisableIPC bool
}

type Model struct {
	log      *zap.Logger
	ctrl     Controller
	settings *config.Settings
	finder   StationFinder
	trayCh   <-chan tray.Action
	onStatus func(playback.Status)
	ipc      *ipcServer
	noIPC    bool

	styles Styles
	theme  Theme

	stations []string
	selected int
	status   playback.Status

	errMsg string
	screen screen
	hidden bool

	window config.WindowSize
	width  int
	height int

	autoPlay      string
	autoPlayDelay time.Duration

	add     addDialog
	options optionsDialog
}

type eventMsg struct {
	event playback.Event
	ok    bool
}

type commandDoneMsg struct {
	cmd playback.Command
	err error
}

type trayMsg struct {
	action tray.Action
	ok     bool
}

type autoPlayMsg struct{ station string }

type lookupMsg struct {
	name    string
	station directory.Station
	err     error
}

type settingsSavedMsg struct{ err error }

func NewModel(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	delay := opts.AutoPlayDelay
	if delay <= 0 {
		delay = DefaultAutoPlayDelay
	}

	theme := ThemeFor(opts.Settings.Appearance())
	m := Model{
		log:           log,
		ctrl:          opts.Controller,
		settings:      opts.Settings,
		finder:        opts.Finder,
		trayCh:        opts.Tray,
		onStatus:      opts.OnStatus,
		noIPC:         opts.DisableIPC,
		styles:        BuildStyles(theme),
		theme:         theme,
		stations:      opts.Settings.Registry().ListNames(),
		status:        opts.Controller.Status(),
		window:        opts.Settings.WindowSize(),
		autoPlayDelay: delay,
		add:           newAddDialog(),
		options:       newOptionsDialog(),
	}

	if name, ok := opts.Settings.LastStation(); ok {
		m.selectStation(name)
		m.autoPlay = name
	}
	if opts.StartupErr != nil {
		m.errMsg = opts.StartupErr.Error()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.listenEventsCmd(), m.listenTrayCmd(), m.autoPlayCmd()}
	if !m.noIPC {
		cmds = append(cmds, m.startIPCCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		if !msg.ok {
			return m, nil
		}
		m.applyEvent(msg.event)
		return m, m.listenEventsCmd()
	case commandDoneMsg:
		return m.handleCommandDone(msg)
	case autoPlayMsg:
		if m.status.State == playback.Playing {
			return m, nil
		}
		m.log.Info("resuming last station", zap.String("station", msg.station))
		return m, m.executeCmd(playback.Play{Station: msg.station})
	case trayMsg:
		if !msg.ok {
			return m, nil
		}
		next, cmd := m.handleTray(msg.action)
		return next, tea.Batch(cmd, next.(Model).listenTrayCmd())
	case mpris.Request:
		return m.handleMPRIS(msg)
	case lookupMsg:
		return m.handleLookup(msg)
	case settingsSavedMsg:
		if msg.err != nil {
			m.errMsg = "Settings not saved: " + msg.err.Error()
		}
		return m, nil
	case ipcReadyMsg:
		if msg.err != nil {
			m.log.Warn("control socket unavailable", zap.Error(msg.err))
			return m, nil
		}
		m.ipc = msg.server
		return m, m.listenIPCCmd()
	case ipcMsg:
		return m.handleIPC(msg)
	case ipcClosedMsg:
		m.ipc = nil
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.exit()
	}

	if m.hidden {
		m.hidden = false
		return m, nil
	}

	switch m.screen {
	case screenHelp:
		if key == "?" || key == "esc" || key == "enter" || key == "q" {
			m.screen = screenMain
		}
		return m, nil
	case screenAdd:
		return m.updateAddDialog(msg)
	case screenOptions:
		return m.updateOptionsDialog(msg)
	}

	switch key {
	case "?":
		m.screen = screenHelp
	case "up", "k":
		m.moveSelection(-1)
	case "down", "j":
		m.moveSelection(1)
	case "enter":
		if station, ok := m.currentStation(); ok {
			m.errMsg = ""
			return m, m.executeCmd(playback.Play{Station: station})
		}
	case "s", " ":
		return m, m.executeCmd(playback.Stop{})
	case "left", "-":
		cmd := m.changeVolume(-volumeStep)
		return m, cmd
	case "right", "+", "=":
		cmd := m.changeVolume(volumeStep)
		return m, cmd
	case "a":
		return m.openAddDialog()
	case "o":
		return m.openOptionsDialog()
	case "q", "esc":
		return m.hide()
	}
	return m, nil
}

func (m Model) handleCommandDone(msg commandDoneMsg) (tea.Model, tea.Cmd) {
	add, isAdd := msg.cmd.(playback.AddStation)

	// A newer command took over; its own result updates the view.
	if errors.Is(msg.err, playback.ErrInterrupted) {
		return m, nil
	}
	if msg.err != nil {
		var verr *config.ValidationError
		if isAdd && errors.As(msg.err, &verr) && m.screen == screenAdd {
			m.add.err = verr.Error()
			return m, nil
		}
		m.errMsg = describeError(msg.err)
		if !isAdd {
			return m, nil
		}
	} else {
		m.errMsg = ""
	}

	if isAdd {
		m.stations = m.settings.Registry().ListNames()
		m.selectStation(strings.TrimSpace(add.Name))
		if m.screen == screenAdd {
			m.closeDialog()
		}
	}
	return m, nil
}

func (m *Model) applyEvent(ev playback.Event) {
	m.status = ev.Status
	if ev.Kind == playback.StationsChanged {
		current, _ := m.currentStation()
		m.stations = m.settings.Registry().ListNames()
		m.selectStation(current)
	}
	if ev.Kind == playback.StateChanged && ev.Status.State == playback.Playing {
		m.selectStation(ev.Status.Station)
	}
	if ev.Err != nil {
		m.errMsg = describeError(ev.Err)
	}
	if m.onStatus != nil {
		m.onStatus(ev.Status)
	}
}

func (m Model) handleTray(action tray.Action) (tea.Model, tea.Cmd) {
	switch action {
	case tray.Open:
		m.hidden = false
		if m.screen == screenHelp {
			m.screen = screenMain
		}
		return m, nil
	case tray.Options:
		m.hidden = false
		return m.openOptionsDialog()
	case tray.AddStation:
		m.hidden = false
		return m.openAddDialog()
	case tray.Exit:
		return m.exit()
	}
	return m, nil
}

func (m Model) handleMPRIS(req mpris.Request) (tea.Model, tea.Cmd) {
	switch req.Action {
	case mpris.Raise:
		m.hidden = false
	case mpris.Quit:
		return m.exit()
	case mpris.Play:
		return m, m.playSelected()
	case mpris.Pause, mpris.Stop:
		return m, m.executeCmd(playback.Stop{})
	case mpris.PlayPause:
		if m.status.State == playback.Playing {
			return m, m.executeCmd(playback.Stop{})
		}
		return m, m.playSelected()
	case mpris.Next:
		if m.moveSelection(1) {
			return m, m.playSelected()
		}
	case mpris.Previous:
		if m.moveSelection(-1) {
			return m, m.playSelected()
		}
	case mpris.SetVolume:
		m.status.Volume = config.ClampVolume(req.Volume)
		return m, m.executeCmd(playback.SetVolume{Level: req.Volume})
	}
	return m, nil
}

func (m Model) handleIPC(msg ipcMsg) (tea.Model, tea.Cmd) {
	cmd, err := parseIPCCommand(msg.cmd)
	if err != nil {
		sendIPCReply(msg.reply, ipcReply{ok: false, err: err.Error()})
		return m, m.listenIPCCmd()
	}

	var reply ipcReply
	var cmdTea tea.Cmd
	var next tea.Model = m

	switch cmd {
	case "OPEN":
		next, cmdTea = m.handleTray(tray.Open)
		reply = ipcReply{ok: true}
	case "OPTIONS":
		next, cmdTea = m.handleTray(tray.Options)
		reply = ipcReply{ok: true}
	case "ADD":
		next, cmdTea = m.handleTray(tray.AddStation)
		reply = ipcReply{ok: true}
	case "PLAY":
		if _, ok := m.currentStation(); !ok {
			reply = ipcReply{ok: false, err: "no station selected"}
			break
		}
		cmdTea, reply = m.playSelected(), ipcReply{ok: true, data: "QUEUED"}
	case "STOP":
		cmdTea, reply = m.executeCmd(playback.Stop{}), ipcReply{ok: true}
	case "QUIT":
		sendIPCReply(msg.reply, ipcReply{ok: true})
		return m.exit()
	case "STATUS":
		reply = ipcReply{ok: true, data: m.ipcStatus()}
	case "PING":
		reply = ipcReply{ok: true}
	default:
		reply = ipcReply{ok: false, err: "unknown command"}
	}

	sendIPCReply(msg.reply, reply)
	return next, tea.Batch(cmdTea, next.(Model).listenIPCCmd())
}

func (m Model) ipcStatus() string {
	st := m.status
	return fmt.Sprintf("{\"state\":%q,\"station\":%q,\"now_playing\":%q,\"volume\":%d}",
		st.State.String(), fallback(st.Station, "-"), st.NowPlaying, st.Volume)
}

// exit closes the control socket and quits. The engine is stopped when the
// controller is closed on shutdown, so a stalled stream cannot hold the UI.
func (m Model) exit() (tea.Model, tea.Cmd) {
	if m.ipc != nil {
		m.ipc.Close()
		m.ipc = nil
	}
	if err := m.saveWindowSize(); err != nil {
		m.errMsg = describeError(err)
	}
	return m, tea.Quit
}

// hide shrinks the player to a one-line strip; the process keeps running.
func (m Model) hide() (tea.Model, tea.Cmd) {
	m.hidden = true
	if err := m.saveWindowSize(); err != nil {
		m.errMsg = describeError(err)
	}
	return m, nil
}

func (m Model) saveWindowSize() error {
	err := m.settings.SetWindowSize(m.window.Width, m.window.Height)
	if err != nil {
		m.log.Warn("window size not saved", zap.Error(err))
	}
	return err
}

func (m Model) playSelected() tea.Cmd {
	station, ok := m.currentStation()
	if !ok {
		return nil
	}
	return m.executeCmd(playback.Play{Station: station})
}

func (m *Model) changeVolume(delta int) tea.Cmd {
	level := config.ClampVolume(m.status.Volume + delta)
	if level == m.status.Volume {
		return nil
	}
	m.status.Volume = level
	return m.executeCmd(playback.SetVolume{Level: level})
}

func (m Model) executeCmd(cmd playback.Command) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return commandDoneMsg{cmd: cmd, err: ctrl.Execute(ctx, cmd)}
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{event: ev, ok: ok}
	}
}

func (m Model) listenTrayCmd() tea.Cmd {
	if m.trayCh == nil {
		return nil
	}
	ch := m.trayCh
	return func() tea.Msg {
		action, ok := <-ch
		return trayMsg{action: action, ok: ok}
	}
}

func (m Model) autoPlayCmd() tea.Cmd {
	if m.autoPlay == "" {
		return nil
	}
	station := m.autoPlay
	return tea.Tick(m.autoPlayDelay, func(time.Time) tea.Msg {
		return autoPlayMsg{station: station}
	})
}

func (m Model) startIPCCmd() tea.Cmd {
	return func() tea.Msg {
		server, err := newIPCServer()
		return ipcReadyMsg{server: server, err: err}
	}
}

func (m Model) listenIPCCmd() tea.Cmd {
	if m.ipc == nil {
		return nil
	}
	server := m.ipc
	return func() tea.Msg {
		select {
		case msg := <-server.messages:
			return msg
		case <-server.done:
			return ipcClosedMsg{}
		}
	}
}

func (m *Model) moveSelection(delta int) bool {
	if len(m.stations) == 0 {
		return false
	}
	prev := m.selected
	m.selected += delta
	m.ensureSelection()
	return prev != m.selected
}

func (m *Model) ensureSelection() {
	if len(m.stations) == 0 {
		m.selected = 0
		return
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.stations) {
		m.selected = len(m.stations) - 1
	}
}

// selectStation moves the cursor to name if it is listed.
func (m *Model) selectStation(name string) {
	for i, s := range m.stations {
		if s == name {
			m.selected = i
			return
		}
	}
	m.ensureSelection()
}

func (m *Model) currentStation() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.stations) {
		return "", false
	}
	return m.stations[m.selected], true
}

func describeError(err error) string {
	var perr *playback.PlaybackError
	switch {
	case errors.As(err, &perr) && errors.Is(err, playback.ErrStreamEnded):
		return fmt.Sprintf("%s: stream ended", perr.Station)
	case errors.As(err, &perr):
		return fmt.Sprintf("Cannot play %s: %v", perr.Station, perr.Err)
	case errors.Is(err, playback.ErrUnknownStation):
		return "Station not found"
	}
	var werr *config.WriteError
	if errors.As(err, &werr) {
		return "Settings not saved: " + werr.Err.Error()
	}
	return err.Error()
}
