//go:build linux

package mpris

import (
	"fmt"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"go.uber.org/zap"

	"netradio/internal/playback"
)

const (
	objectPath  = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootIface   = "org.mpris.MediaPlayer2"
	playerIface = "org.mpris.MediaPlayer2.Player"

	trackPath = dbus.ObjectPath("/org/mpris/MediaPlayer2/netradio/track")
	noTrack   = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

// Server owns the bus name and mirrors playback status into MPRIS
// properties.
type Server struct {
	log *zap.Logger

	mu       sync.Mutex
	conn     *dbus.Conn
	props    *prop.Properties
	dispatch *dispatcher
}

func New(log *zap.Logger) *Server {
	return &Server{log: log}
}

// Start connects to the session bus and exports the player. handler gets
// every client request, off the bus goroutines.
func (s *Server) Start(handler Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("session bus connection failed: %w", err)
	}
	return s.serveLocked(conn, handler)
}

// serveLocked exports the player on conn and claims BusName. conn is closed
// on failure.
func (s *Server) serveLocked(conn *dbus.Conn, handler Handler) error {
	d := newDispatcher(s.log, handler)
	props, err := export(conn, d.send)
	if err != nil {
		d.close()
		conn.Close()
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		d.close()
		conn.Close()
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		d.close()
		conn.Close()
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.conn = conn
	s.props = props
	s.dispatch = d
	s.log.Info("MPRIS server started", zap.String("name", BusName))
	return nil
}

// Update publishes st. It is a no-op before Start.
func (s *Server) Update(st playback.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.props == nil {
		return
	}
	s.props.SetMust(playerIface, "PlaybackStatus", playbackStatus(st.State))
	s.props.SetMust(playerIface, "Metadata", metadata(st))
	s.props.SetMust(playerIface, "Volume", volumeToMPRIS(st.Volume))
}

// Stop releases the bus name.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.dispatch.close()
	s.conn = nil
	s.props = nil
	s.dispatch = nil
	return err
}

func export(conn *dbus.Conn, handler Handler) (*prop.Properties, error) {
	root := &rootObject{handler: handler}
	player := &playerObject{handler: handler}

	if err := conn.Export(root, objectPath, rootIface); err != nil {
		return nil, fmt.Errorf("export %s: %w", rootIface, err)
	}
	if err := conn.Export(player, objectPath, playerIface); err != nil {
		return nil, fmt.Errorf("export %s: %w", playerIface, err)
	}

	props, err := prop.Export(conn, objectPath, propertySpec(handler))
	if err != nil {
		return nil, fmt.Errorf("export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootIface,
				Methods:    introspect.Methods(root),
				Properties: props.Introspection(rootIface),
			},
			{
				Name:       playerIface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(playerIface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}
	return props, nil
}

func propertySpec(handler Handler) prop.Map {
	ro := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return prop.Map{
		rootIface: {
			"CanQuit":             ro(true),
			"CanRaise":            ro(true),
			"HasTrackList":        ro(false),
			"Identity":            ro("NetRadio"),
			"SupportedUriSchemes": ro([]string{"http", "https"}),
			"SupportedMimeTypes":  ro([]string{"audio/mpeg", "audio/aac"}),
		},
		playerIface: {
			"PlaybackStatus": ro(playbackStatus(playback.Idle)),
			"Rate":           ro(1.0),
			"MinimumRate":    ro(1.0),
			"MaximumRate":    ro(1.0),
			"Metadata":       ro(metadata(playback.Status{})),
			"Position":       &prop.Prop{Value: int64(0), Writable: false, Emit: prop.EmitFalse},
			"Volume": {
				Value:    1.0,
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					v, ok := c.Value.(float64)
					if !ok {
						return prop.ErrInvalidArg
					}
					handler(Request{Action: SetVolume, Volume: volumeFromMPRIS(v)})
					return nil
				},
			},
			"CanGoNext":     ro(true),
			"CanGoPrevious": ro(true),
			"CanPlay":       ro(true),
			"CanPause":      ro(true),
			"CanSeek":       ro(false),
			"CanControl":    ro(true),
		},
	}
}

type rootObject struct {
	handler Handler
}

func (r *rootObject) Raise() *dbus.Error {
	r.handler(Request{Action: Raise})
	return nil
}

func (r *rootObject) Quit() *dbus.Error {
	r.handler(Request{Action: Quit})
	return nil
}

type playerObject struct {
	handler Handler
}

func (p *playerObject) Play() *dbus.Error      { return p.send(Play) }
func (p *playerObject) Pause() *dbus.Error     { return p.send(Pause) }
func (p *playerObject) PlayPause() *dbus.Error { return p.send(PlayPause) }
func (p *playerObject) Stop() *dbus.Error      { return p.send(Stop) }
func (p *playerObject) Next() *dbus.Error      { return p.send(Next) }
func (p *playerObject) Previous() *dbus.Error  { return p.send(Previous) }

// Live streams cannot seek.
func (p *playerObject) Seek(offset int64) *dbus.Error { return nil }

func (p *playerObject) SetPosition(track dbus.ObjectPath, position int64) *dbus.Error {
	return nil
}

func (p *playerObject) OpenUri(uri string) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("opening %q is not supported", uri))
}

func (p *playerObject) send(a Action) *dbus.Error {
	p.handler(Request{Action: a})
	return nil
}

// A stopped radio has nothing paused to resume, so Stopped and Idle both
// map to "Stopped".
func playbackStatus(state playback.State) string {
	if state == playback.Playing {
		return "Playing"
	}
	return "Stopped"
}

func metadata(st playback.Status) map[string]dbus.Variant {
	if st.State != playback.Playing || st.Station == "" {
		return map[string]dbus.Variant{
			"mpris:trackid": dbus.MakeVariant(noTrack),
		}
	}
	title := st.NowPlaying
	if title == "" {
		title = st.Station
	}
	return map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackPath),
		"xesam:title":   dbus.MakeVariant(title),
		"xesam:artist":  dbus.MakeVariant([]string{st.Station}),
		"xesam:album":   dbus.MakeVariant(st.Station),
	}
}

func volumeToMPRIS(percent int) float64 {
	return float64(percent) / 100
}

func volumeFromMPRIS(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(math.Round(v * 100))
}
