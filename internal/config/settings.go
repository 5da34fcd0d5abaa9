package config

import (
	"fmt"
	"sync"
)

// Settings owns the live settings document for the process lifetime. Every
// mutation is persisted through the Store before the setter returns.
type Settings struct {
	mu    sync.Mutex
	store *Store
	doc   Document
}

// Open loads the document from store. When the file is damaged the returned
// Settings holds defaults and the *ReadError is returned next to it.
func Open(store *Store) (*Settings, error) {
	doc, err := store.Load()
	return NewSettings(store, doc), err
}

func NewSettings(store *Store, doc Document) *Settings {
	if doc.Stations == nil {
		doc.Stations = cloneStations(nil)
	}
	return &Settings{store: store, doc: doc.Clone()}
}

// Snapshot returns a copy of the current document.
func (s *Settings) Snapshot() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Registry returns the station view over this document.
func (s *Settings) Registry() *Registry {
	return &Registry{settings: s}
}

func (s *Settings) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LastVolume
}

// SetVolume clamps level, stores it and returns the stored value.
func (s *Settings) SetVolume(level int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	level = ClampVolume(level)
	s.doc.LastVolume = level
	return level, s.saveLocked()
}

// LastStation returns the remembered station if it still exists.
func (s *Settings) LastStation() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.LastStation == nil {
		return "", false
	}
	name := *s.doc.LastStation
	if _, ok := s.doc.Stations.Get(name); !ok {
		return "", false
	}
	return name, true
}

func (s *Settings) SetLastStation(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Stations.Get(name); !ok {
		return fmt.Errorf("%w: %q", ErrStationNotFound, name)
	}
	s.doc.LastStation = &name
	return s.saveLocked()
}

func (s *Settings) Appearance() AppearanceMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.AppearanceMode
}

func (s *Settings) SetAppearance(mode AppearanceMode) error {
	if !mode.Valid() {
		return &ValidationError{Field: "appearance_mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.AppearanceMode = mode
	return s.saveLocked()
}

func (s *Settings) WindowSize() WindowSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.WindowSize
}

func (s *Settings) SetWindowSize(width, height int) error {
	size := WindowSize{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.WindowSize = size
	return s.saveLocked()
}

// Save writes the document as it is now.
func (s *Settings) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Settings) saveLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.Save(s.doc)
}
