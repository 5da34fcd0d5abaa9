package ui

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"netradio/internal/ipc"
)

const ipcReplyTimeout = 2 * time.Second

type ipcReply struct {
	ok   bool
	data string
	err  string
}

type ipcMsg struct {
	cmd   string
	reply chan ipcReply
}

type ipcReadyMsg struct {
	server *ipcServer
	err    error
}

type ipcClosedMsg struct{}

// ipcServer accepts control connections and hands each command line to the
// UI loop as an ipcMsg, writing back whatever reply the loop sends.
type ipcServer struct {
	listener net.Listener
	endpoint ipc.Endpoint
	messages chan ipcMsg
	done     chan struct{}
	once     sync.Once
}

func newIPCServer() (*ipcServer, error) {
	ln, ep, err := ipc.Listen()
	if err != nil {
		return nil, fmt.Errorf("control socket: %w", err)
	}
	return serveIPC(ln, ep), nil
}

func serveIPC(ln net.Listener, ep ipc.Endpoint) *ipcServer {
	s := &ipcServer{
		listener: ln,
		endpoint: ep,
		messages: make(chan ipcMsg),
		done:     make(chan struct{}),
	}
	go s.acceptLoop()
	return s
}

func (s *ipcServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-s.done:
				return
			default:
			}
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *ipcServer) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcReplyTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}

	reply := make(chan ipcReply, 1)
	select {
	case s.messages <- ipcMsg{cmd: line, reply: reply}:
	case <-s.done:
		return
	}

	var r ipcReply
	select {
	case r = <-reply:
	case <-time.After(ipcReplyTimeout):
		r = ipcReply{ok: false, err: "timeout"}
	case <-s.done:
		// QUIT replies and then closes the server.
		select {
		case r = <-reply:
		default:
			return
		}
	}
	_, _ = fmt.Fprintln(conn, ipc.FormatReply(r.ok, r.data, r.err))
}

// Close stops accepting and removes the socket file. Safe to call twice.
func (s *ipcServer) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.listener.Close()
		_ = ipc.Cleanup(s.endpoint)
	})
}

func parseIPCCommand(raw string) (string, error) {
	cmd := strings.ToUpper(strings.TrimSpace(raw))
	if cmd == "" {
		return "", errors.New("empty command")
	}
	return cmd, nil
}

func sendIPCReply(ch chan ipcReply, reply ipcReply) {
	if ch == nil {
		return
	}
	select {
	case ch <- reply:
	case <-time.After(200 * time.Millisecond):
	}
}
