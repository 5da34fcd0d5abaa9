package config

import (
	"errors"
	"fmt"
)

// ErrStationNotFound is returned when a station name is not in the registry.
var ErrStationNotFound = errors.New("station not found")

// ReadError reports a settings file that exists but could not be read or
// parsed. Load still returns usable defaults alongside it.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read settings %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed settings persist. The in-memory change that
// triggered the write is kept.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("save settings %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ValidationError rejects user input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
