package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"netradio/internal/config"
	"netradio/internal/player"
)

const (
	DefaultPollInterval = 3 * time.Second

	eventBuffer         = 32
	dropWarningInterval = 5 * time.Second
)

// Controller drives a player.Backend through Idle, Playing and Stopped and
// keeps the settings document in step with it.
type Controller struct {
	log      *zap.Logger
	backend  player.Backend
	settings *config.Settings
	interval time.Duration
	events   chan Event

	// op serializes commands; mu guards the fields below and is never
	// held across a backend call that may block on the network.
	op sync.Mutex

	mu              sync.Mutex
	state           State
	station         string
	nowPlaying      string
	gen             uint64
	cancelPoll      context.CancelFunc
	openGen         uint64
	cancelOpen      context.CancelFunc
	closed          bool
	lastDropWarning time.Time

	wg sync.WaitGroup
}

func NewController(log *zap.Logger, backend player.Backend, settings *config.Settings, interval time.Duration) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	c := &Controller{
		log:      log,
		backend:  backend,
		settings: settings,
		interval: interval,
		events:   make(chan Event, eventBuffer),
	}
	if err := backend.SetVolume(settings.Volume()); err != nil {
		log.Warn("initial volume not applied", zap.Error(err))
	}
	return c
}

// Events delivers state changes. The channel is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Execute runs one command.
func (c *Controller) Execute(ctx context.Context, cmd Command) error {
	switch cmd := cmd.(type) {
	case Play:
		return c.Play(ctx, cmd.Station)
	case Stop:
		return c.Stop()
	case SetVolume:
		_, err := c.SetVolume(cmd.Level)
		return err
	case AddStation:
		return c.AddStation(cmd.Name, cmd.URL)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

// Play starts the named station. An unknown name leaves the state as it is.
// The engine opens the stream without op held, so a Stop or a newer Play
// can cut a slow open short; the superseded call returns ErrInterrupted.
// When the stream starts but last_station cannot be saved, playback goes on
// and the *config.WriteError is returned.
func (c *Controller) Play(ctx context.Context, name string) error {
	c.op.Lock()
	if err := ctx.Err(); err != nil {
		c.op.Unlock()
		return err
	}
	if c.isClosed() {
		c.op.Unlock()
		return ErrClosed
	}

	url, err := c.settings.Registry().Resolve(name)
	if err != nil {
		c.op.Unlock()
		if errors.Is(err, config.ErrStationNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownStation, name)
		}
		return err
	}

	c.mu.Lock()
	c.stopPollerLocked()
	c.abortOpenLocked()
	openCtx, cancel := context.WithCancel(ctx)
	c.cancelOpen = cancel
	gen := c.openGen
	c.mu.Unlock()
	c.op.Unlock()

	err = c.backend.Play(openCtx, url)
	cancel()

	c.mu.Lock()
	if gen != c.openGen {
		c.mu.Unlock()
		c.log.Debug("play superseded", zap.String("station", name))
		return ErrInterrupted
	}
	c.cancelOpen = nil

	if err != nil {
		perr := &PlaybackError{Station: name, Err: err}
		c.state = Idle
		c.station = ""
		c.nowPlaying = ""
		c.emitLocked(Failed, perr)
		c.mu.Unlock()
		c.log.Warn("playback failed", zap.String("station", name), zap.Error(err))
		return perr
	}

	c.state = Playing
	c.station = name
	c.nowPlaying = name
	c.startPollerLocked(name)
	c.emitLocked(StateChanged, nil)
	c.mu.Unlock()

	c.log.Info("playing", zap.String("station", name), zap.String("url", url))

	if err := c.settings.SetLastStation(name); err != nil {
		c.log.Warn("last station not saved", zap.String("station", name), zap.Error(err))
		return err
	}
	return nil
}

// Stop ends the session and aborts a Play still opening its stream.
// Outside Playing it otherwise only clears the display.
func (c *Controller) Stop() error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	opening := c.abortOpenLocked()
	if c.state != Playing {
		changed := c.nowPlaying != ""
		c.nowPlaying = ""
		if changed {
			c.emitLocked(NowPlayingChanged, nil)
		}
		c.mu.Unlock()
		if opening {
			if err := c.backend.Stop(); err != nil {
				c.log.Warn("engine stop failed", zap.Error(err))
			}
		}
		return nil
	}
	c.stopPollerLocked()
	station := c.station
	c.mu.Unlock()

	err := c.backend.Stop()
	if err != nil {
		c.log.Warn("engine stop failed", zap.String("station", station), zap.Error(err))
		err = &PlaybackError{Station: station, Err: err}
	}

	c.mu.Lock()
	c.state = Stopped
	c.nowPlaying = ""
	c.emitLocked(StateChanged, nil)
	c.mu.Unlock()

	c.log.Info("stopped", zap.String("station", station))
	return err
}

// SetVolume clamps level to [0, 100], applies it to the engine in any state
// and persists it. The applied level is returned even when an error is.
func (c *Controller) SetVolume(level int) (int, error) {
	c.op.Lock()
	defer c.op.Unlock()

	level = config.ClampVolume(level)
	engineErr := c.backend.SetVolume(level)
	if engineErr != nil {
		c.log.Warn("engine volume not applied", zap.Int("level", level), zap.Error(engineErr))
	}

	applied, saveErr := c.settings.SetVolume(level)

	c.mu.Lock()
	c.emitLocked(VolumeChanged, nil)
	station := c.station
	c.mu.Unlock()

	if saveErr != nil {
		return applied, saveErr
	}
	if engineErr != nil {
		return applied, &PlaybackError{Station: station, Err: fmt.Errorf("set volume: %w", engineErr)}
	}
	return applied, nil
}

// AddStation adds or replaces a station. A save failure keeps the change.
func (c *Controller) AddStation(name, url string) error {
	c.op.Lock()
	defer c.op.Unlock()

	err := c.settings.Registry().AddOrUpdate(name, url)
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		return err
	}

	c.mu.Lock()
	c.emitLocked(StationsChanged, nil)
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("station not saved", zap.String("name", name), zap.Error(err))
		return err
	}
	c.log.Info("station saved", zap.String("name", name))
	return nil
}

// Close stops the engine and the poller and closes the event channel.
func (c *Controller) Close() error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopPollerLocked()
	c.abortOpenLocked()
	c.mu.Unlock()

	c.wg.Wait()
	err := c.backend.Stop()

	c.mu.Lock()
	c.closed = true
	if c.state == Playing {
		c.state = Stopped
	}
	c.nowPlaying = ""
	close(c.events)
	c.mu.Unlock()
	return err
}

// abortOpenLocked cancels an engine open in progress and invalidates its
// result. It reports whether one was running.
func (c *Controller) abortOpenLocked() bool {
	c.openGen++
	if c.cancelOpen == nil {
		return false
	}
	c.cancelOpen()
	c.cancelOpen = nil
	return true
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) statusLocked() Status {
	return Status{
		State:      c.state,
		Station:    c.station,
		NowPlaying: c.nowPlaying,
		Volume:     c.settings.Volume(),
	}
}

// emitLocked never blocks: when the consumer lags the event is dropped.
func (c *Controller) emitLocked(kind EventKind, err error) {
	if c.closed {
		return
	}
	ev := Event{Kind: kind, Status: c.statusLocked(), Err: err}
	select {
	case c.events <- ev:
	default:
		now := time.Now()
		if now.Sub(c.lastDropWarning) >= dropWarningInterval {
			c.log.Warn("events channel full, dropping event", zap.Stringer("kind", kind))
			c.lastDropWarning = now
		}
	}
}

func (c *Controller) startPollerLocked(station string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	gen := c.gen
	c.wg.Add(1)
	go c.poll(ctx, gen, station)
}

// stopPollerLocked cancels the running poller. Bumping gen makes any tick
// already in flight discard its result.
func (c *Controller) stopPollerLocked() {
	c.gen++
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
}

func (c *Controller) poll(ctx context.Context, gen uint64, station string) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !c.backend.IsPlaying() {
			c.endSession(gen, station)
			return
		}

		meta, err := c.backend.Metadata()
		if err != nil {
			c.log.Debug("metadata poll failed", zap.String("station", station), zap.Error(err))
			continue
		}
		c.updateNowPlaying(gen, DisplayText(meta, station))
	}
}

func (c *Controller) updateNowPlaying(gen uint64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != Playing || text == c.nowPlaying {
		return
	}
	c.nowPlaying = text
	c.log.Debug("now playing", zap.String("station", c.station), zap.String("text", text))
	c.emitLocked(NowPlayingChanged, nil)
}

func (c *Controller) endSession(gen uint64, station string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != Playing {
		return
	}
	c.stopPollerLocked()
	c.state = Idle
	c.station = ""
	c.nowPlaying = ""
	c.log.Warn("stream ended", zap.String("station", station))
	c.emitLocked(Failed, &PlaybackError{Station: station, Err: ErrStreamEnded})
}
