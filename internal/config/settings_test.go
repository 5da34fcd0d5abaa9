package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// newTestSettings creates Settings holding defaults, persisted to a temp file.
func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	return NewSettings(newTestStore(t), Defaults())
}

func TestSettings_SetVolume_Clamps(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  int
	}{
		{"in range", 55, 55},
		{"above range", 150, 100},
		{"below range", -5, 0},
		{"upper bound", 100, 100},
		{"lower bound", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSettings(t)
			got, err := s.SetVolume(tt.level)
			if err != nil {
				t.Fatalf("SetVolume() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SetVolume(%d) = %d, want %d", tt.level, got, tt.want)
			}
			if s.Volume() != tt.want {
				t.Errorf("Volume() = %d, want %d", s.Volume(), tt.want)
			}
		})
	}
}

func TestSettings_SetVolume_Persists(t *testing.T) {
	s := newTestSettings(t)
	if _, err := s.SetVolume(12); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}

	doc, err := s.store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.LastVolume != 12 {
		t.Errorf("persisted LastVolume = %d, want 12", doc.LastVolume)
	}
}

func TestSettings_LastStation(t *testing.T) {
	s := newTestSettings(t)

	if _, ok := s.LastStation(); ok {
		t.Fatal("LastStation() should be unset for defaults")
	}

	if err := s.SetLastStation("Heart80s"); err != nil {
		t.Fatalf("SetLastStation() error = %v", err)
	}
	name, ok := s.LastStation()
	if !ok || name != "Heart80s" {
		t.Errorf("LastStation() = %q, %v; want Heart80s, true", name, ok)
	}

	err := s.SetLastStation("Missing FM")
	if !errors.Is(err, ErrStationNotFound) {
		t.Errorf("SetLastStation(unknown) error = %v, want ErrStationNotFound", err)
	}
	if name, _ := s.LastStation(); name != "Heart80s" {
		t.Errorf("LastStation() = %q after failed set, want Heart80s", name)
	}
}

func TestSettings_SetWindowSize_Validation(t *testing.T) {
	s := newTestSettings(t)

	var valErr *ValidationError
	if err := s.SetWindowSize(99, 300); !errors.As(err, &valErr) {
		t.Errorf("SetWindowSize(99, 300) error = %v, want *ValidationError", err)
	}
	if err := s.SetWindowSize(300, 0); !errors.As(err, &valErr) {
		t.Errorf("SetWindowSize(300, 0) error = %v, want *ValidationError", err)
	}
	if got := s.WindowSize(); got != (WindowSize{Width: 450, Height: 200}) {
		t.Errorf("WindowSize() = %+v, want unchanged 450x200", got)
	}

	if err := s.SetWindowSize(100, 100); err != nil {
		t.Fatalf("SetWindowSize(100, 100) error = %v", err)
	}
	if got := s.WindowSize(); got != (WindowSize{Width: 100, Height: 100}) {
		t.Errorf("WindowSize() = %+v, want 100x100", got)
	}
}

func TestSettings_SetAppearance(t *testing.T) {
	s := newTestSettings(t)

	if err := s.SetAppearance(AppearanceLight); err != nil {
		t.Fatalf("SetAppearance() error = %v", err)
	}
	if s.Appearance() != AppearanceLight {
		t.Errorf("Appearance() = %q, want light", s.Appearance())
	}

	var valErr *ValidationError
	if err := s.SetAppearance("neon"); !errors.As(err, &valErr) {
		t.Errorf("SetAppearance(neon) error = %v, want *ValidationError", err)
	}
	if s.Appearance() != AppearanceLight {
		t.Errorf("Appearance() = %q after invalid set, want light", s.Appearance())
	}
}

func TestSettings_WriteFailureKeepsChange(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s := NewSettings(NewStore(filepath.Join(blocker, "settings.json")), Defaults())

	_, err := s.SetVolume(20)
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("SetVolume() error = %v, want *WriteError", err)
	}
	if s.Volume() != 20 {
		t.Errorf("Volume() = %d, want 20", s.Volume())
	}
}

func TestSettings_SnapshotIsIndependent(t *testing.T) {
	s := newTestSettings(t)

	snap := s.Snapshot()
	snap.Stations.Set("Injected", "http://x")
	snap.LastVolume = 1

	if _, err := s.Registry().Resolve("Injected"); err == nil {
		t.Error("mutating a snapshot should not reach the live document")
	}
	if s.Volume() != 70 {
		t.Errorf("Volume() = %d, want 70", s.Volume())
	}
}

func TestOpen_DamagedFileStillUsable(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Open(store)
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Open() error = %v, want *ReadError", err)
	}
	if s == nil || s.Registry().Count() != 4 {
		t.Fatal("Open() should return default settings next to the read error")
	}
}

func TestSettings_ConcurrentAccess(t *testing.T) {
	s := newTestSettings(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, _ = s.SetVolume(id*10 + j)
				_ = s.Registry().ListNames()
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()
}
