package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"go.uber.org/zap"
)

const (
	userAgent = "NetRadio/1.0"

	// Volume is applied on a perceptual curve: 0% is silent, 100% is unity
	// gain, the rest maps onto [minVolumeDB, 0].
	volumeCurveExponent = 0.5
	minVolumeDB         = -10.0
)

// GoPlayer plays MP3 HTTP streams using the high-level beep library.
// It handles resampling automatically, fixing pitch issues with different sample rates.
//
// mu is never held across network I/O. Play and Stop bump gen; an open
// that finds gen moved on discards its stream.
type GoPlayer struct {
	mu          sync.Mutex
	http        *http.Client
	streamer    beep.StreamSeekCloser
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	body        io.ReadCloser
	cancel      context.CancelFunc
	gen         atomic.Uint64
	lastURL     string
	playing     bool
	initialized bool
	percent     int
	initSpeaker func() error

	metaMu     sync.RWMutex
	nowPlaying string
	title      string
}

// openStream is a decoded stream that is not yet attached to the speaker.
type openStream struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	body     io.ReadCloser
	name     string
}

func (s *openStream) close() {
	_ = s.streamer.Close()
	_ = s.body.Close()
}

// NewGoPlayer creates a GoPlayer instance.
func NewGoPlayer() *GoPlayer {
	return &GoPlayer{
		http: &http.Client{
			// Streams are long-lived; only the connection phase is bounded.
			// Body reads end when the session context is cancelled.
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				DisableCompression:    true,
			},
		},
		percent:     100,
		initSpeaker: initDefaultSpeaker,
	}
}

// initDefaultSpeaker opens the audio device. We standardize on 44100Hz for
// all playback with a buffer of ~100ms.
func initDefaultSpeaker() error {
	sr := beep.SampleRate(44100)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	return nil
}

// ensureSpeakerLocked initializes the audio device once.
func (g *GoPlayer) ensureSpeakerLocked() error {
	if g.initialized {
		return nil
	}
	if err := g.initSpeaker(); err != nil {
		return err
	}
	g.initialized = true
	return nil
}

// Play opens an HTTP stream and starts playback. ctx bounds the connect and
// the first decoded frame; the stream itself runs until Stop or the next Play.
func (g *GoPlayer) Play(ctx context.Context, url string) error {
	if url == "" {
		return errors.New("stream url is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	g.stopLocked()
	gen := g.gen.Add(1)
	g.lastURL = url
	g.setMetadata("", "")
	session, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.mu.Unlock()

	stopWatch := context.AfterFunc(ctx, cancel)
	stream, err := g.open(session, gen, url)
	if !stopWatch() && err == nil {
		stream.close()
		err = ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if gen != g.gen.Load() {
		if stream != nil && err == nil {
			stream.close()
		}
		cancel()
		return ErrInterrupted
	}
	if err != nil {
		cancel()
		g.cancel = nil
		return err
	}
	if err := g.ensureSpeakerLocked(); err != nil {
		stream.close()
		cancel()
		g.cancel = nil
		return err
	}

	g.attachLocked(stream)
	return nil
}

// open connects and decodes the first frame. It runs without g.mu.
func (g *GoPlayer) open(ctx context.Context, gen uint64, url string) (*openStream, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Icy-MetaData", "1")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream open: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream HTTP %d", resp.StatusCode)
	}

	metaint, _ := strconv.Atoi(strings.TrimSpace(resp.Header.Get("icy-metaint")))
	body := newICYReader(resp.Body, metaint, func(title string) {
		g.setNowPlaying(gen, title)
	})

	// Decode MP3 via beep (wraps go-mp3)
	streamer, format, err := mp3.Decode(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("mp3 decode: %w", err)
	}
	return &openStream{
		streamer: streamer,
		format:   format,
		body:     body,
		name:     strings.TrimSpace(resp.Header.Get("icy-name")),
	}, nil
}

func (g *GoPlayer) attachLocked(stream *openStream) {
	g.setMetadata("", stream.name)

	// Resample to our standard 44100Hz rate
	resampled := beep.Resample(4, stream.format.SampleRate, beep.SampleRate(44100), stream.streamer)

	volume := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   percentToExponent(g.percent),
		Silent:   g.percent == 0,
	}

	// Wrap in a Ctrl to allow pausing/stopping nicely
	ctrl := &beep.Ctrl{Streamer: volume, Paused: false}

	// The callback runs under the speaker lock while Stop and SetVolume take
	// g.mu before the speaker lock, so cleanup happens off the mixer goroutine.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		go func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.ctrl == ctrl {
				g.ctrl = nil
				g.cleanupLocked()
			}
		}()
	})))

	g.streamer = stream.streamer
	g.ctrl = ctrl
	g.volume = volume
	g.body = stream.body
	g.playing = true
}

// Stop halts playback immediately and aborts a Play still connecting.
func (g *GoPlayer) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen.Add(1)
	g.stopLocked()
	return nil
}

// SetVolume applies percent to the running stream and remembers it for the next one.
func (g *GoPlayer) SetVolume(percent int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.percent = clampPercent(percent)
	if g.volume == nil {
		return nil
	}

	speaker.Lock()
	g.volume.Volume = percentToExponent(g.percent)
	g.volume.Silent = g.percent == 0
	speaker.Unlock()
	return nil
}

func (g *GoPlayer) Metadata() (Metadata, error) {
	if !g.IsPlaying() {
		return Metadata{}, ErrNotPlaying
	}
	g.metaMu.RLock()
	defer g.metaMu.RUnlock()
	return Metadata{NowPlaying: g.nowPlaying, Title: g.title}, nil
}

// setNowPlaying records an ICY title unless the stream has been replaced.
// It runs on the mixer goroutine under the speaker lock, so it must not
// take g.mu.
func (g *GoPlayer) setNowPlaying(gen uint64, title string) {
	if gen != g.gen.Load() {
		return
	}
	g.metaMu.Lock()
	g.nowPlaying = title
	g.metaMu.Unlock()
}

func (g *GoPlayer) setMetadata(nowPlaying, title string) {
	g.metaMu.Lock()
	g.nowPlaying = nowPlaying
	g.title = title
	g.metaMu.Unlock()
}

// stopLocked detaches the streamer so the mixer drops it, and cancels the
// session so a pending body read returns.
func (g *GoPlayer) stopLocked() {
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = true
		g.ctrl.Streamer = nil
		speaker.Unlock()
		g.ctrl = nil
	}
	g.cleanupLocked()
}

func (g *GoPlayer) cleanupLocked() {
	if g.streamer != nil {
		g.streamer.Close()
		g.streamer = nil
	}
	// Response body is closed by streamer.Close() usually, but be safe
	if g.body != nil {
		g.body.Close()
		g.body = nil
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.volume = nil
	g.playing = false
}

func (g *GoPlayer) IsPlaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playing
}

func (g *GoPlayer) LastURL() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastURL
}

func percentToExponent(percent int) float64 {
	if percent <= 0 {
		return minVolumeDB
	}
	if percent >= 100 {
		return 0
	}
	adjusted := math.Pow(float64(percent)/100.0, volumeCurveExponent)
	return (1.0 - adjusted) * minVolumeDB
}

// openGoAudio returns a GoPlayer when initSpeaker can open the audio
// device, so a machine without sound falls through to the external player.
func openGoAudio(log *zap.Logger, initSpeaker func() error) *GoPlayer {
	g := NewGoPlayer()
	g.initSpeaker = initSpeaker
	g.mu.Lock()
	err := g.ensureSpeakerLocked()
	g.mu.Unlock()
	if err != nil {
		log.Info("audio device unavailable", zap.Error(err))
		return nil
	}
	return g
}

var _ Backend = (*GoPlayer)(nil)
