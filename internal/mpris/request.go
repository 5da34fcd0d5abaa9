// Package mpris publishes the player on the D-Bus session bus as an MPRIS2
// media player, so media keys and desktop widgets can drive it.
package mpris

import (
	"fmt"

	"go.uber.org/zap"
)

// BusName is the well-known name the player owns.
const BusName = "org.mpris.MediaPlayer2.netradio"

// Action is a request made by an MPRIS client.
type Action int

const (
	Raise Action = iota
	Quit
	Play
	Pause
	PlayPause
	Stop
	Next
	Previous
	SetVolume
)

func (a Action) String() string {
	switch a {
	case Raise:
		return "raise"
	case Quit:
		return "quit"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case PlayPause:
		return "play_pause"
	case Stop:
		return "stop"
	case Next:
		return "next"
	case Previous:
		return "previous"
	case SetVolume:
		return "set_volume"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Request reaches the UI loop as a message. Volume is only set for
// SetVolume, in percent.
type Request struct {
	Action Action
	Volume int
}

// Handler receives requests in the order clients made them. It runs on its
// own goroutine and may block.
type Handler func(Request)

const queueSize = 16

// dispatcher decouples bus callbacks from the handler. godbus runs property
// callbacks under the same lock Update needs, so a callback that waited on
// the UI while the UI published status would never return.
type dispatcher struct {
	log   *zap.Logger
	queue chan Request
	done  chan struct{}
}

func newDispatcher(log *zap.Logger, handler Handler) *dispatcher {
	d := &dispatcher{
		log:   log,
		queue: make(chan Request, queueSize),
		done:  make(chan struct{}),
	}
	go d.run(handler)
	return d
}

// send queues req without blocking. A full queue drops it.
func (d *dispatcher) send(req Request) {
	select {
	case d.queue <- req:
	case <-d.done:
	default:
		d.log.Warn("mpris request dropped", zap.Stringer("action", req.Action))
	}
}

func (d *dispatcher) run(handler Handler) {
	for {
		select {
		case req := <-d.queue:
			handler(req)
		case <-d.done:
			return
		}
	}
}

func (d *dispatcher) close() {
	close(d.done)
}
