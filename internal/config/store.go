package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// DefaultPath is the settings file, relative to the working directory.
const DefaultPath = "settings.json"

// Store reads and writes the settings document at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the settings document. A missing file yields Defaults and a nil
// error; an unreadable or malformed file yields Defaults and a *ReadError.
func (s *Store) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), &ReadError{Path: s.path, Err: err}
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return Defaults(), &ReadError{Path: s.path, Err: err}
	}
	return doc, nil
}

// Save replaces the settings file with doc. The write goes to a temporary
// file that is renamed over the old one, so a crash leaves either the old
// or the new document on disk.
func (s *Store) Save(doc Document) error {
	if doc.Stations == nil {
		doc.Stations = cloneStations(nil)
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return &WriteError{Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: s.path, Err: err}
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(out)); err != nil {
		return &WriteError{Path: s.path, Err: err}
	}
	return nil
}
