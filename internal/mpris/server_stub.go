//go:build !linux

package mpris

import (
	"fmt"

	"go.uber.org/zap"

	"netradio/internal/playback"
)

// Server stub for non-Linux platforms
type Server struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Server {
	return &Server{log: log}
}

// Start returns an error indicating MPRIS is not supported on this platform
func (s *Server) Start(handler Handler) error {
	return fmt.Errorf("MPRIS is only supported on Linux systems")
}

func (s *Server) Update(st playback.Status) {}

func (s *Server) Stop() error {
	return nil
}
