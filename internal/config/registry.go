package config

import (
	"fmt"
	"strings"
)

// Registry is the station name -> stream URL view over Settings.
type Registry struct {
	settings *Settings
}

func (r *Registry) ListNames() []string {
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()
	return r.settings.doc.StationNames()
}

// AddOrUpdate stores url under name, replacing the URL of an existing
// station in place. Both values are trimmed and must be non-empty.
func (r *Registry) AddOrUpdate(name, url string) error {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" {
		return &ValidationError{Field: "name", Reason: "station name is required"}
	}
	if url == "" {
		return &ValidationError{Field: "url", Reason: "stream url is required"}
	}

	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()

	r.settings.doc.Stations.Set(name, url)
	return r.settings.saveLocked()
}

func (r *Registry) Resolve(name string) (string, error) {
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()

	url, ok := r.settings.doc.Stations.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrStationNotFound, name)
	}
	return url, nil
}

func (r *Registry) Count() int {
	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()
	return r.settings.doc.Stations.Len()
}
