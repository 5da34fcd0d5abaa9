//go:build windows

package ipc

import (
	"fmt"
	"net"
)

// Unix sockets are not reliable across Windows builds, so the control
// endpoint is a fixed loopback port.
const loopbackAddress = "127.0.0.1:47853"

func ResolveEndpoint() (Endpoint, error) {
	return Endpoint{Network: "tcp", Address: loopbackAddress}, nil
}

func Listen() (net.Listener, Endpoint, error) {
	ep, _ := ResolveEndpoint()
	ln, err := net.Listen(ep.Network, ep.Address)
	if err != nil {
		return nil, Endpoint{}, fmt.Errorf("listen %s: %w", ep.Address, err)
	}
	return ln, ep, nil
}
