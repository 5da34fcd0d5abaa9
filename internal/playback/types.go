package playback

import (
	"errors"
	"fmt"
)

// State is the controller's playback state.
type State int

const (
	Idle State = iota
	Playing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time view of the playback session.
type Status struct {
	State      State
	Station    string
	NowPlaying string
	Volume     int
}

// EventKind says what changed.
type EventKind int

const (
	StateChanged EventKind = iota
	NowPlayingChanged
	VolumeChanged
	StationsChanged
	Failed
)

func (k EventKind) String() string {
	switch k {
	case StateChanged:
		return "state"
	case NowPlayingChanged:
		return "now_playing"
	case VolumeChanged:
		return "volume"
	case StationsChanged:
		return "stations"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event carries a full Status snapshot, so a consumer that missed an event
// is back in sync with the next one.
type Event struct {
	Kind   EventKind
	Status Status
	Err    error
}

var (
	ErrUnknownStation = errors.New("unknown station")
	ErrStreamEnded    = errors.New("stream ended")
	ErrClosed         = errors.New("controller closed")

	// ErrInterrupted is returned by a Play that a Stop or a newer Play
	// cut short. The newer command owns the state.
	ErrInterrupted = errors.New("play interrupted")
)

// PlaybackError reports an engine failure for a station.
type PlaybackError struct {
	Station string
	Err     error
}

func (e *PlaybackError) Error() string {
	if e.Station == "" {
		return fmt.Sprintf("playback: %v", e.Err)
	}
	return fmt.Sprintf("playback of %q: %v", e.Station, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// Command is a request the controller executes. The set is closed.
type Command interface {
	command()
}

type Play struct{ Station string }

type Stop struct{}

type SetVolume struct{ Level int }

type AddStation struct{ Name, URL string }

func (Play) command()       {}
func (Stop) command()       {}
func (SetVolume) command()  {}
func (AddStation) command() {}
