package ui

import (
	"net"
	"testing"
	"time"

	"netradio/internal/ipc"
)

func TestParseIPCCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		// Valid commands
		{"simple command", "play", "PLAY", false},
		{"uppercase command", "STOP", "STOP", false},
		{"mixed case", "PlAy", "PLAY", false},
		{"with leading space", "  play", "PLAY", false},
		{"with trailing space", "stop  ", "STOP", false},
		{"with both spaces", "  open  ", "OPEN", false},

		// Invalid commands
		{"empty string", "", "", true},
		{"whitespace only", "   ", "", true},
		{"tabs only", "\t\t", "", true},
		{"newlines only", "\n\n", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseIPCCommand(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Error("parseIPCCommand() should return error")
				}
				return
			}

			if err != nil {
				t.Fatalf("parseIPCCommand() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("parseIPCCommand(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseIPCCommand_CommonCommands(t *testing.T) {
	// Test common IPC commands that the app might receive
	commands := []string{
		ipc.CmdOpen,
		ipc.CmdOptions,
		ipc.CmdAdd,
		ipc.CmdPlay,
		ipc.CmdStop,
		ipc.CmdStatus,
		ipc.CmdPing,
		ipc.CmdQuit,
	}

	for _, cmd := range commands {
		t.Run(cmd, func(t *testing.T) {
			result, err := parseIPCCommand(cmd)
			if err != nil {
				t.Fatalf("parseIPCCommand(%q) error = %v", cmd, err)
			}
			if result != cmd {
				t.Errorf("parseIPCCommand(%q) = %q, want %q", cmd, result, cmd)
			}
		})
	}
}

func TestIPCReply_Struct(t *testing.T) {
	// Test ipcReply struct construction
	tests := []struct {
		name   string
		reply  ipcReply
		isOK   bool
		hasErr bool
	}{
		{
			name:   "success reply",
			reply:  ipcReply{ok: true, data: "Station: Test FM"},
			isOK:   true,
			hasErr: false,
		},
		{
			name:   "error reply",
			reply:  ipcReply{ok: false, err: "not playing"},
			isOK:   false,
			hasErr: true,
		},
		{
			name:   "success with empty data",
			reply:  ipcReply{ok: true, data: ""},
			isOK:   true,
			hasErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.reply.ok != tt.isOK {
				t.Errorf("reply.ok = %v, want %v", tt.reply.ok, tt.isOK)
			}
			hasErr := tt.reply.err != ""
			if hasErr != tt.hasErr {
				t.Errorf("reply has error = %v, want %v", hasErr, tt.hasErr)
			}
		})
	}
}

func TestIPCMsg_Struct(t *testing.T) {
	// Test ipcMsg struct construction
	replyChan := make(chan ipcReply, 1)
	msg := ipcMsg{
		cmd:   "PLAY",
		reply: replyChan,
	}

	if msg.cmd != "PLAY" {
		t.Errorf("msg.cmd = %q, want %q", msg.cmd, "PLAY")
	}

	// Test channel works
	go func() {
		msg.reply <- ipcReply{ok: true, data: "Playing"}
	}()

	reply := <-msg.reply
	if !reply.ok {
		t.Error("reply should be ok")
	}
	if reply.data != "Playing" {
		t.Errorf("reply.data = %q, want %q", reply.data, "Playing")
	}
}

func startTestIPCServer(t *testing.T) (*ipcServer, ipc.Endpoint) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ep := ipc.Endpoint{Network: "tcp", Address: ln.Addr().String()}
	s := serveIPC(ln, ep)
	t.Cleanup(s.Close)
	return s, ep
}

func TestIPCServer_RoundTrip(t *testing.T) {
	s, ep := startTestIPCServer(t)

	go func() {
		msg := <-s.messages
		if msg.cmd != "status\n" {
			sendIPCReply(msg.reply, ipcReply{ok: false, err: "unexpected " + msg.cmd})
			return
		}
		sendIPCReply(msg.reply, ipcReply{ok: true, data: "{}"})
	}()

	got, err := ipc.SendTo(ep, "status")
	if err != nil {
		t.Fatalf("SendTo() error = %v", err)
	}
	if got != "{}" {
		t.Errorf("SendTo() = %q, want %q", got, "{}")
	}
}

func TestIPCServer_ErrorReply(t *testing.T) {
	s, ep := startTestIPCServer(t)

	go func() {
		msg := <-s.messages
		sendIPCReply(msg.reply, ipcReply{ok: false, err: "unknown command"})
	}()

	_, err := ipc.SendTo(ep, "bogus")
	if err == nil || err.Error() != "unknown command" {
		t.Errorf("SendTo() error = %v, want unknown command", err)
	}
}

func TestIPCServer_QuitReplyBeforeClose(t *testing.T) {
	s, ep := startTestIPCServer(t)

	go func() {
		msg := <-s.messages
		sendIPCReply(msg.reply, ipcReply{ok: true})
		s.Close()
	}()

	if _, err := ipc.SendTo(ep, ipc.CmdQuit); err != nil {
		t.Fatalf("SendTo(QUIT) error = %v", err)
	}

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("server not closed after QUIT")
	}
	if _, err := ipc.SendTo(ep, ipc.CmdPing); err == nil {
		t.Error("closed server should refuse connections")
	}
}
