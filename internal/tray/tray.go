// Package tray owns the system-tray icon. Menu clicks never touch UI state:
// they are posted as Action tokens for the UI loop to drain.
package tray

import (
	_ "embed"
	"os"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"
)

// Action is a tray menu request.
type Action int

const (
	Open Action = iota
	Options
	AddStation
	Exit
)

func (a Action) String() string {
	switch a {
	case Open:
		return "open"
	case Options:
		return "options"
	case AddStation:
		return "add_station"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

const title = "NetRadio"

type menuEntry struct {
	label   string
	tooltip string
	action  Action
}

var menu = []menuEntry{
	{"Open", "Show the player", Open},
	{"Options", "Appearance and window size", Options},
	{"Add Radio", "Add a station", AddStation},
	{"Exit", "Quit NetRadio", Exit},
}

//go:embed assets/icon.png
var iconPNG []byte

//go:embed assets/icon.ico
var iconICO []byte

type Tray struct {
	log     *zap.Logger
	actions chan Action

	mu    sync.Mutex
	ready bool
}

func New(log *zap.Logger) *Tray {
	return &Tray{
		log:     log,
		actions: make(chan Action, 8),
	}
}

// Actions delivers menu clicks in order.
func (t *Tray) Actions() <-chan Action {
	return t.actions
}

// Run blocks on the main OS thread until Quit. onReady runs once the icon
// is shown; onExit after the loop ends.
func (t *Tray) Run(onReady, onExit func()) {
	systray.Run(func() {
		t.attach()
		if onReady != nil {
			onReady()
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
}

func (t *Tray) attach() {
	if icon := trayIcon(); len(icon) > 0 {
		systray.SetIcon(icon)
	}
	systray.SetTooltip(title)

	for i, entry := range menu {
		if entry.action == Exit && i > 0 {
			systray.AddSeparator()
		}
		item := systray.AddMenuItem(entry.label, entry.tooltip)
		go func(ch <-chan struct{}, action Action) {
			for range ch {
				t.post(action)
			}
		}(item.ClickedCh, entry.action)
	}

	t.mu.Lock()
	t.ready = true
	t.mu.Unlock()
	t.log.Info("tray ready")
}

// post never blocks the tray loop; a click made while the UI is busy with
// a full queue is dropped.
func (t *Tray) post(action Action) {
	select {
	case t.actions <- action:
	default:
		t.log.Warn("tray action dropped", zap.Stringer("action", action))
	}
}

// SetStatus shows text in the icon tooltip.
func (t *Tray) SetStatus(text string) {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()
	if !ready {
		return
	}
	if text == "" {
		systray.SetTooltip(title)
		return
	}
	systray.SetTooltip(title + " - " + text)
}

// Quit ends Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// Supported reports whether a tray can be shown. On Linux that needs a
// graphical session.
func Supported() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func trayIcon() []byte {
	if runtime.GOOS == "windows" {
		return iconICO
	}
	return iconPNG
}
