package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Metadata is the live stream information an engine can report.
type Metadata struct {
	// NowPlaying is the in-stream track or program text (ICY StreamTitle).
	NowPlaying string
	// Title is the generic stream title, usually the station's own name.
	Title string
}

// Backend is the common interface for all audio player backends.
//
//go:generate mockgen -destination=mocks/backend_mock.go -package=mocks netradio/internal/player Backend
type Backend interface {
	// Play replaces any current stream with url. ctx bounds opening the
	// stream only; Stop aborts an open that is still in progress.
	Play(ctx context.Context, url string) error
	Stop() error
	// SetVolume takes a level in [0, 100]. It may be called while stopped;
	// the level is then applied to the next stream.
	SetVolume(percent int) error
	Metadata() (Metadata, error)
	IsPlaying() bool
	LastURL() string
}

var (
	// ErrNotPlaying is returned by Metadata when no stream is loaded.
	ErrNotPlaying = errors.New("no stream loaded")

	// ErrInterrupted is returned by Play when Stop or a newer Play
	// superseded it before the stream started.
	ErrInterrupted = errors.New("playback interrupted")
)

// CompositeBackend wraps multiple backends and selects the best one dynamically.
// Engines are opened without holding mu, so Stop can abort a slow open.
type CompositeBackend struct {
	mu      sync.Mutex
	log     *zap.Logger
	gp      Backend
	ext     Backend
	active  Backend
	opening Backend
	abort   context.CancelFunc
	gen     uint64
	lastURL string
	volume  int
}

func (c *CompositeBackend) Play(ctx context.Context, url string) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.lastURL = url
	volume := c.volume
	prev, opening := c.active, c.opening
	c.active, c.opening = nil, nil
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}
	c.mu.Unlock()

	// Stop any currently playing backend
	if prev != nil {
		_ = prev.Stop()
	}
	if opening != nil && opening != prev {
		_ = opening.Stop()
	}

	var errGo error
	// 1. Try pure Go backend
	if c.gp != nil {
		err := c.try(ctx, gen, c.gp, url, volume)
		if err == nil {
			c.logger().Info("playing with go backend", zap.String("url", url))
			return nil
		}
		if errors.Is(err, ErrInterrupted) || ctx.Err() != nil {
			return err
		}
		errGo = err
		c.logger().Debug("go backend rejected stream", zap.String("url", url), zap.Error(err))
	}

	// 2. Fallback to external player (if available)
	// Useful for AAC/OGG streams that go-mp3 cannot decode
	if c.ext != nil {
		err := c.try(ctx, gen, c.ext, url, volume)
		if err == nil {
			c.logger().Info("playing with external backend", zap.String("url", url))
			return nil
		}
		if errors.Is(err, ErrInterrupted) || errGo == nil {
			return err
		}
		return fmt.Errorf("go-audio: %v, external: %v", errGo, err)
	}

	if errGo != nil {
		return fmt.Errorf("format not supported in pure Go; please install mpv or ffplay to listen (error: %v)", errGo)
	}
	return errors.New("no audio backend available; please install mpv or ffplay")
}

// try opens url on b unless a newer Play or a Stop has happened since gen.
func (c *CompositeBackend) try(ctx context.Context, gen uint64, b Backend, url string, volume int) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrInterrupted
	}
	openCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.opening = b
	c.abort = cancel
	c.mu.Unlock()

	_ = b.SetVolume(volume)
	err := b.Play(openCtx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// b may have started after the Stop aimed at it. Tear it down
		// unless a newer Play has already taken b over.
		if err == nil && c.opening != b && c.active != b {
			_ = b.Stop()
		}
		return ErrInterrupted
	}
	c.opening, c.abort = nil, nil
	if err != nil {
		return err
	}
	c.active = b
	return nil
}

// Stop ends the active stream and aborts an engine that is still opening.
func (c *CompositeBackend) Stop() error {
	c.mu.Lock()
	c.gen++
	active, opening := c.active, c.opening
	c.active, c.opening = nil, nil
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}
	c.mu.Unlock()

	if opening != nil && opening != active {
		_ = opening.Stop()
	}
	if active != nil {
		return active.Stop()
	}
	return nil
}

func (c *CompositeBackend) SetVolume(percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volume = clampPercent(percent)
	if c.active != nil {
		return c.active.SetVolume(c.volume)
	}
	return nil
}

func (c *CompositeBackend) Metadata() (Metadata, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	// Queried outside the lock: the external backend talks to mpv over a
	// socket and must not hold up Stop.
	if active == nil {
		return Metadata{}, ErrNotPlaying
	}
	return active.Metadata()
}

func (c *CompositeBackend) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil && c.active.IsPlaying()
}

func (c *CompositeBackend) LastURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastURL
}

func (c *CompositeBackend) logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

// New returns a smart player that tries pure Go audio first,
// but falls back to system mpv/ffplay for unsupported formats (like AAC).
func New(log *zap.Logger) (Backend, error) {
	gp := openGoAudio(log, initDefaultSpeaker)
	ext, err := newExternal() // optional fallback
	if err != nil {
		log.Info("external player not found", zap.Error(err))
	}

	if gp == nil && ext == nil {
		return nil, errors.New("no player backend available")
	}

	c := &CompositeBackend{log: log, volume: 100}
	if gp != nil {
		c.gp = gp
	}
	if ext != nil {
		c.ext = ext
	}
	return c, nil
}

func clampPercent(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
