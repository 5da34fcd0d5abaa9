//go:build !windows

package player

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// fakeMPV answers each command line on a unix socket with the given replies.
func fakeMPV(t *testing.T, replies ...string) (string, <-chan []any) {
	t.Helper()

	dir, err := os.MkdirTemp("", "mpvtest")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	commands := make(chan []any, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var req struct {
			Command []any `json:"command"`
		}
		_ = json.Unmarshal(line, &req)
		commands <- req.Command

		for _, r := range replies {
			_, _ = conn.Write([]byte(r + "\n"))
		}
	}()
	return sock, commands
}

func TestMPVCommand_SkipsEvents(t *testing.T) {
	sock, commands := fakeMPV(t,
		`{"event":"metadata-update"}`,
		`{"data":{"icy-title":"Artist - Track"},"error":"success"}`,
	)

	data, err := mpvCommand(sock, "get_property", "metadata")
	if err != nil {
		t.Fatalf("mpvCommand() error = %v", err)
	}

	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if props["icy-title"] != "Artist - Track" {
		t.Errorf("icy-title = %v", props["icy-title"])
	}

	cmd := <-commands
	if len(cmd) != 2 || cmd[0] != "get_property" || cmd[1] != "metadata" {
		t.Errorf("command = %v", cmd)
	}
}

func TestMPVCommand_Error(t *testing.T) {
	sock, _ := fakeMPV(t, `{"error":"property unavailable"}`)

	if _, err := mpvCommand(sock, "get_property", "metadata"); err == nil {
		t.Error("mpvCommand() should fail on a non-success reply")
	}
}

func TestMPVCommand_NoSocket(t *testing.T) {
	if _, err := mpvCommand(filepath.Join(t.TempDir(), "missing.sock"), "get_property", "volume"); err == nil {
		t.Error("mpvCommand() should fail without a listener")
	}
}

func TestPlayer_Metadata_OverIPC(t *testing.T) {
	sock, _ := fakeMPV(t, `{"data":{"icy-title":"Song","icy-name":"Heart"},"error":"success"}`)

	p := &Player{backend: "mpv", path: "/usr/bin/mpv", ipcPath: sock}
	// An unstarted command stands in for a running mpv.
	p.cmd = &exec.Cmd{}

	meta, err := p.Metadata()
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.NowPlaying != "Song" || meta.Title != "Heart" {
		t.Errorf("Metadata() = %+v", meta)
	}
}

func TestPlayer_SetVolume_OverIPC(t *testing.T) {
	sock, commands := fakeMPV(t, `{"data":null,"error":"success"}`)

	p := &Player{backend: "mpv", path: "/usr/bin/mpv", ipcPath: sock, volume: 100}
	if err := p.SetVolume(42); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}

	cmd := <-commands
	if len(cmd) != 3 || cmd[0] != "set_property" || cmd[1] != "volume" || cmd[2] != float64(42) {
		t.Errorf("command = %v", cmd)
	}
}

func TestIPCSocketPath_Unique(t *testing.T) {
	a, b := ipcSocketPath(), ipcSocketPath()
	if a == b {
		t.Errorf("ipcSocketPath() returned %q twice", a)
	}
	if filepath.Ext(a) != ".sock" {
		t.Errorf("ipcSocketPath() = %q, want .sock suffix", a)
	}
}
