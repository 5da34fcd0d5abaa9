package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const ipcTimeout = 750 * time.Millisecond

var errNoIPC = errors.New("player has no control channel")

// Player runs mpv or ffplay as a subprocess. With mpv it also keeps a JSON
// IPC socket to change volume live and read stream metadata.
type Player struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	backend string
	path    string
	lastURL string
	volume  int
	ipcPath string
}

func newExternal() (*Player, error) {
	if path, backend := findBundledPlayer(); path != "" {
		return &Player{backend: backend, path: path, volume: 100}, nil
	}
	if path, err := exec.LookPath("mpv"); err == nil {
		return &Player{backend: "mpv", path: path, volume: 100}, nil
	}
	if path, err := exec.LookPath("ffplay"); err == nil {
		return &Player{backend: "ffplay", path: path, volume: 100}, nil
	}
	return nil, errors.New("mpv or ffplay not found (bundle one or add to PATH)")
}

// Play starts the player process. The process outlives ctx; ctx only stops
// a start that was already cancelled.
func (p *Player) Play(ctx context.Context, url string) error {
	if url == "" {
		return errors.New("stream url is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.stopLocked()
	p.lastURL = url

	var cmd *exec.Cmd
	ipcPath := ""
	switch p.backend {
	case "mpv":
		args := []string{"--no-video", "--quiet", "--volume=" + strconv.Itoa(p.volume)}
		if ipcPath = ipcSocketPath(); ipcPath != "" {
			args = append(args, "--input-ipc-server="+ipcPath)
		}
		cmd = exec.Command(p.path, append(args, url)...)
	case "ffplay":
		cmd = exec.Command(p.path, "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(p.volume), url)
	default:
		return errors.New("no audio backend available")
	}

	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return err
	}

	p.cmd = cmd
	p.ipcPath = ipcPath
	go func(local *exec.Cmd, sock string) {
		_ = local.Wait()
		p.mu.Lock()
		if p.cmd == local {
			p.cmd = nil
			p.ipcPath = ""
		}
		p.mu.Unlock()
		removeSocket(sock)
	}(cmd, ipcPath)

	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.cmd == nil {
		return nil
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.ipcPath = ""
	return nil
}

// SetVolume changes mpv's volume live. ffplay only takes a volume at start,
// so for it the level is kept for the next Play.
func (p *Player) SetVolume(percent int) error {
	p.mu.Lock()
	p.volume = clampPercent(percent)
	sock := p.ipcPath
	level := p.volume
	p.mu.Unlock()

	if sock == "" {
		return nil
	}
	_, err := mpvCommand(sock, "set_property", "volume", level)
	return err
}

// Metadata asks mpv for the stream's metadata. ICY titles arrive as
// "icy-title" (now playing) and "icy-name" (station).
func (p *Player) Metadata() (Metadata, error) {
	p.mu.Lock()
	running := p.cmd != nil
	sock := p.ipcPath
	p.mu.Unlock()

	if !running {
		return Metadata{}, ErrNotPlaying
	}
	if sock == "" {
		return Metadata{}, errNoIPC
	}

	data, err := mpvCommand(sock, "get_property", "metadata")
	if err != nil {
		return Metadata{}, err
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return Metadata{}, fmt.Errorf("mpv metadata: %w", err)
	}
	return Metadata{
		NowPlaying: lookupFold(props, "icy-title"),
		Title:      firstNonEmpty(lookupFold(props, "icy-name"), lookupFold(props, "title")),
	}, nil
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *Player) LastURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastURL
}

type mpvReply struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Event string          `json:"event"`
}

// mpvCommand sends one command over mpv's JSON IPC and waits for its reply,
// skipping asynchronous event lines.
func mpvCommand(sock string, args ...any) (json.RawMessage, error) {
	conn, err := dialIPC(sock, ipcTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))

	payload, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var reply mpvReply
		if err := json.Unmarshal(scanner.Bytes(), &reply); err != nil {
			continue
		}
		if reply.Event != "" {
			continue
		}
		if reply.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], reply.Error)
		}
		return reply.Data, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func lookupFold(props map[string]any, key string) string {
	for k, v := range props {
		if strings.EqualFold(k, key) {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func findBundledPlayer() (string, string) {
	exe, err := os.Executable()
	if err != nil {
		return "", ""
	}
	dir := filepath.Dir(exe)

	candidates := []struct {
		backend string
		name    string
	}{
		{backend: "mpv", name: "mpv"},
		{backend: "mpv", name: "mpv.exe"},
		{backend: "ffplay", name: "ffplay"},
		{backend: "ffplay", name: "ffplay.exe"},
	}

	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate.name)
		if isExecutable(path) {
			return path, candidate.backend
		}
	}

	return "", ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if strings.HasSuffix(strings.ToLower(path), ".exe") {
		return true
	}
	return info.Mode()&0o111 != 0
}
