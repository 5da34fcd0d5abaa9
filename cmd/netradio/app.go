package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"netradio/internal/config"
	"netradio/internal/directory"
	"netradio/internal/mpris"
	"netradio/internal/player"
	"netradio/internal/playback"
	"netradio/internal/tray"
	"netradio/internal/ui"
)

const (
	settingsPath = config.DefaultPath
	logPath      = "netradio.log"
	userAgent    = "NetRadio/1.0"
	pollInterval = playback.DefaultPollInterval
)

// AppOptions is the whole dependency graph of the player process.
var AppOptions = fx.Options(
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	fx.Provide(
		newLogger,
		newSettings,
		newBackend,
		newController,
		newDirectory,
		tray.New,
		mpris.New,
		newModel,
		newProgram,
	),

	fx.Invoke(registerHooks),
)

// startupNotice carries a recoverable settings load error to the UI.
type startupNotice struct {
	err error
}

func newLogger() (*zap.Logger, error) {
	return buildLogger(logPath)
}

// buildLogger writes JSON lines to path; the terminal belongs to the UI.
func buildLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func newSettings(log *zap.Logger) (*config.Settings, startupNotice) {
	settings, err := config.Open(config.NewStore(settingsPath))
	var rerr *config.ReadError
	if errors.As(err, &rerr) {
		log.Warn("settings unreadable, using defaults", zap.String("path", rerr.Path), zap.Error(rerr.Err))
		return settings, startupNotice{err: err}
	}
	return settings, startupNotice{}
}

func newBackend(log *zap.Logger) (player.Backend, error) {
	backend, err := player.New(log.Named("player"))
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func newController(lc fx.Lifecycle, log *zap.Logger, backend player.Backend, settings *config.Settings) *playback.Controller {
	c := playback.NewController(log.Named("playback"), backend, settings, pollInterval)
	lc.Append(fx.StopHook(c.Close))
	return c
}

func newDirectory() (*directory.Client, error) {
	return directory.NewClient(userAgent)
}

type modelParams struct {
	fx.In

	Log        *zap.Logger
	Controller *playback.Controller
	Settings   *config.Settings
	Notice     startupNotice
	Directory  *directory.Client
	Tray       *tray.Tray
	MPRIS      *mpris.Server
}

func newModel(p modelParams) ui.Model {
	return ui.NewModel(ui.Options{
		Log:        p.Log.Named("ui"),
		Controller: p.Controller,
		Settings:   p.Settings,
		Finder:     p.Directory,
		Tray:       p.Tray.Actions(),
		OnStatus: func(st playback.Status) {
			p.Tray.SetStatus(trayStatus(st))
			p.MPRIS.Update(st)
		},
		StartupErr: p.Notice.err,
	})
}

func newProgram(model ui.Model) *tea.Program {
	return tea.NewProgram(model, tea.WithAltScreen())
}

// registerHooks publishes the MPRIS interface once the program exists. A
// missing session bus only costs media-key support.
func registerHooks(lc fx.Lifecycle, log *zap.Logger, server *mpris.Server, program *tea.Program) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("netradio starting")
			if err := server.Start(func(req mpris.Request) { program.Send(req) }); err != nil {
				log.Warn("mpris unavailable", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down")
			return server.Stop()
		},
	})
}

func trayStatus(st playback.Status) string {
	if st.State != playback.Playing {
		return ""
	}
	if st.NowPlaying != "" && st.NowPlaying != st.Station {
		return st.Station + ": " + st.NowPlaying
	}
	return st.Station
}
