//go:build windows

package player

import (
	"net"
	"time"
)

// mpv exposes its IPC on a named pipe on Windows, which the net package
// cannot dial; volume then applies on the next Play and metadata stays empty.
func ipcSocketPath() string {
	return ""
}

func dialIPC(path string, timeout time.Duration) (net.Conn, error) {
	return nil, errNoIPC
}

func removeSocket(path string) {}
