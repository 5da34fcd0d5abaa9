package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

const Timeout = 500 * time.Millisecond

// Commands understood by the running instance.
const (
	CmdOpen    = "OPEN"
	CmdOptions = "OPTIONS"
	CmdAdd     = "ADD"
	CmdPlay    = "PLAY"
	CmdStop    = "STOP"
	CmdStatus  = "STATUS"
	CmdPing    = "PING"
	CmdQuit    = "QUIT"
)

// ErrNotRunning means nothing is listening on the control endpoint.
var ErrNotRunning = errors.New("no running instance")

// Send delivers one command to the running instance and returns its data
// line. An "OK" reply yields an empty string, "ERR msg" an error.
func Send(command string) (string, error) {
	ep, err := ResolveEndpoint()
	if err != nil {
		return "", err
	}
	return SendTo(ep, command)
}

func SendTo(ep Endpoint, command string) (string, error) {
	conn, err := net.DialTimeout(ep.Network, ep.Address, Timeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, command); err != nil {
		return "", err
	}

	_ = conn.SetReadDeadline(time.Now().Add(Timeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", err
	}
	return parseReply(line)
}

func parseReply(line string) (string, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "ERR ") {
		return "", errors.New(strings.TrimPrefix(line, "ERR "))
	}
	if line == "OK" {
		return "", nil
	}
	return line, nil
}

// FormatReply renders a reply line for the server side.
func FormatReply(ok bool, data, errMsg string) string {
	if !ok {
		if errMsg == "" {
			errMsg = "failed"
		}
		return "ERR " + errMsg
	}
	if data == "" {
		return "OK"
	}
	return data
}
