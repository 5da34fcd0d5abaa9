//go:build !windows

package player

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ipcSocketPath returns a fresh socket path per mpv process, so a new
// stream never talks to a previous, still-exiting mpv.
func ipcSocketPath() string {
	dir := os.TempDir()
	// sun_path is 104 bytes on macOS, whose TMPDIR alone can take half.
	if len(dir) > 48 {
		dir = "/tmp"
	}
	return filepath.Join(dir, "netradio-mpv-"+uuid.NewString()+".sock")
}

func dialIPC(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}

func removeSocket(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
