package ipc

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"testing"
)

// serveOnce answers a single command on a loopback listener.
func serveOnce(t *testing.T, reply string) (Endpoint, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		got <- strings.TrimSpace(line)
		_, _ = conn.Write([]byte(reply + "\n"))
	}()
	return Endpoint{Network: "tcp", Address: ln.Addr().String()}, got
}

func TestSendTo(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr string
	}{
		{"ok", "OK", "", ""},
		{"data", "playing Heart90s", "playing Heart90s", ""},
		{"error", "ERR no station selected", "", "no station selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, got := serveOnce(t, tt.reply)

			data, err := SendTo(ep, CmdStatus)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("SendTo() error = %v, want %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("SendTo() error = %v", err)
			}
			if data != tt.want {
				t.Errorf("SendTo() = %q, want %q", data, tt.want)
			}
			if cmd := <-got; cmd != CmdStatus {
				t.Errorf("server got %q, want %q", cmd, CmdStatus)
			}
		})
	}
}

func TestSendTo_NotRunning(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = SendTo(Endpoint{Network: "tcp", Address: addr}, CmdPing)
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("SendTo() error = %v, want ErrNotRunning", err)
	}
}

func TestFormatReply(t *testing.T) {
	tests := []struct {
		name   string
		ok     bool
		data   string
		errMsg string
		want   string
	}{
		{"ok", true, "", "", "OK"},
		{"data", true, "idle", "", "idle"},
		{"error", false, "", "unknown command", "ERR unknown command"},
		{"error without message", false, "", "", "ERR failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatReply(tt.ok, tt.data, tt.errMsg); got != tt.want {
				t.Errorf("FormatReply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReply_RoundTrip(t *testing.T) {
	data, err := parseReply(FormatReply(true, "stopped", "") + "\n")
	if err != nil || data != "stopped" {
		t.Errorf("parseReply() = %q, %v", data, err)
	}
	if _, err := parseReply(FormatReply(false, "", "boom")); err == nil || err.Error() != "boom" {
		t.Errorf("parseReply() error = %v, want boom", err)
	}
}
