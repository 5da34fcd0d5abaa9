package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"netradio/internal/ipc"
	"netradio/internal/tray"
)

func main() {
	// A second launch brings the running player forward and exits.
	if _, err := ipc.Send(ipc.CmdOpen); err == nil {
		return
	}

	var (
		program *tea.Program
		icon    *tray.Tray
		log     *zap.Logger
	)
	app := fx.New(AppOptions, fx.Populate(&program, &icon, &log))
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "netradio:", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	err := app.Start(startCtx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "netradio:", err)
		os.Exit(1)
	}

	runErr := run(program, icon, log)

	stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
	_ = log.Sync()

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "netradio:", runErr)
		os.Exit(1)
	}
}

// run keeps the tray on the main thread and the TUI in a goroutine. Without
// a graphical session the TUI runs alone.
func run(program *tea.Program, icon *tray.Tray, log *zap.Logger) error {
	if !tray.Supported() {
		log.Info("no graphical session, running without tray")
		_, err := program.Run()
		return err
	}

	done := make(chan error, 1)
	icon.Run(func() {
		go func() {
			_, err := program.Run()
			done <- err
			icon.Quit()
		}()
	}, nil)
	return <-done
}
