//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ResolveEndpoint returns <UserConfigDir>/netradio/ctl.sock.
func ResolveEndpoint() (Endpoint, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Endpoint{}, fmt.Errorf("config dir: %w", err)
	}
	return Endpoint{Network: "unix", Address: filepath.Join(dir, appDir, "ctl.sock")}, nil
}

// Listen binds the control socket, replacing a stale one, readable only by
// the current user. A socket that still accepts connections belongs to a
// running instance and yields ErrInUse.
func Listen() (net.Listener, Endpoint, error) {
	ep, err := ResolveEndpoint()
	if err != nil {
		return nil, Endpoint{}, err
	}
	if err := os.MkdirAll(filepath.Dir(ep.Address), 0o700); err != nil {
		return nil, Endpoint{}, fmt.Errorf("create socket dir: %w", err)
	}
	if err := reclaimSocket(ep); err != nil {
		return nil, Endpoint{}, err
	}

	ln, err := net.Listen(ep.Network, ep.Address)
	if err != nil {
		return nil, Endpoint{}, fmt.Errorf("listen %s: %w", ep.Address, err)
	}
	if err := os.Chmod(ep.Address, 0o600); err != nil {
		ln.Close()
		_ = Cleanup(ep)
		return nil, Endpoint{}, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, ep, nil
}

// reclaimSocket removes the socket at ep only when nothing listens on it.
func reclaimSocket(ep Endpoint) error {
	conn, err := net.DialTimeout(ep.Network, ep.Address, time.Second)
	switch {
	case err == nil:
		conn.Close()
		return fmt.Errorf("%s: %w", ep.Address, ErrInUse)
	case errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, syscall.ECONNREFUSED):
		if err := Cleanup(ep); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("check socket %s: %w", ep.Address, err)
	}
}
