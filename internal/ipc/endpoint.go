// Package ipc locates the control endpoint of a running netradio and talks
// to it with a one-line-per-command protocol.
package ipc

import (
	"errors"
	"os"
)

const appDir = "netradio"

// ErrInUse is returned by Listen when another instance owns the endpoint.
var ErrInUse = errors.New("control endpoint in use by another instance")

// Endpoint is a dialable control address.
type Endpoint struct {
	Network string
	Address string
}

// Cleanup removes a unix socket left behind by Listen. Missing files and
// non-file endpoints are not errors.
func Cleanup(ep Endpoint) error {
	if ep.Network != "unix" || ep.Address == "" {
		return nil
	}
	if err := os.Remove(ep.Address); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
