package config

import (
	"encoding/json"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	MinWindowDimension = 100
	MinVolume          = 0
	MaxVolume          = 100
)

// AppearanceMode selects the light or dark palette.
type AppearanceMode string

const (
	AppearanceLight AppearanceMode = "light"
	AppearanceDark  AppearanceMode = "dark"
)

func (m AppearanceMode) Valid() bool {
	return m == AppearanceLight || m == AppearanceDark
}

// WindowSize is stored as a two-element JSON array: [width, height].
type WindowSize struct {
	Width  int
	Height int
}

func (w WindowSize) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{w.Width, w.Height})
}

func (w *WindowSize) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("window_size: want 2 values, got %d", len(pair))
	}
	w.Width, w.Height = pair[0], pair[1]
	return nil
}

// Validate enforces the minimum dimension on both axes.
func (w WindowSize) Validate() error {
	if w.Width < MinWindowDimension || w.Height < MinWindowDimension {
		return &ValidationError{
			Field:  "window_size",
			Reason: fmt.Sprintf("width and height must be at least %d", MinWindowDimension),
		}
	}
	return nil
}

// Stations maps station names to stream URLs, preserving insertion order.
type Stations = orderedmap.OrderedMap[string, string]

// Document is the persisted settings document.
type Document struct {
	Stations       *Stations      `json:"stations"`
	AppearanceMode AppearanceMode `json:"appearance_mode"`
	WindowSize     WindowSize     `json:"window_size"`
	LastStation    *string        `json:"last_station"`
	LastVolume     int            `json:"last_volume"`
}

// Defaults returns the built-in document used when nothing is persisted.
func Defaults() Document {
	stations := orderedmap.New[string, string]()
	stations.Set("Heart90s", "https://media-ssl.musicradio.com/Heart90s")
	stations.Set("Heart80s", "https://media-ice.musicradio.com/Heart80sMP3")
	stations.Set("Heart70s", "https://media-ssl.musicradio.com/Heart70s")
	stations.Set("Radio Swiss Pop", "http://stream.srg-ssr.ch/m/rsp/mp3_128")

	return Document{
		Stations:       stations,
		AppearanceMode: AppearanceDark,
		WindowSize:     WindowSize{Width: 450, Height: 200},
		LastStation:    nil,
		LastVolume:     70,
	}
}

// Clone returns a deep copy, so callers can read it without holding locks.
func (d Document) Clone() Document {
	out := d
	out.Stations = cloneStations(d.Stations)
	if d.LastStation != nil {
		name := *d.LastStation
		out.LastStation = &name
	}
	return out
}

// StationNames lists station names in stored order.
func (d Document) StationNames() []string {
	if d.Stations == nil {
		return nil
	}
	names := make([]string, 0, d.Stations.Len())
	for pair := d.Stations.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// ClampVolume bounds a volume level to [MinVolume, MaxVolume].
func ClampVolume(level int) int {
	if level < MinVolume {
		return MinVolume
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}

func cloneStations(src *Stations) *Stations {
	dst := orderedmap.New[string, string]()
	if src == nil {
		return dst
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
	return dst
}

// decodeDocument parses data key by key. A key that is missing or invalid
// keeps its default; only a document that is not a JSON object fails.
func decodeDocument(data []byte) (Document, error) {
	doc := Defaults()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, err
	}

	if v, ok := raw["stations"]; ok {
		stations := orderedmap.New[string, string]()
		if err := json.Unmarshal(v, stations); err == nil {
			doc.Stations = stations
		}
	}

	if v, ok := raw["appearance_mode"]; ok {
		var mode AppearanceMode
		if err := json.Unmarshal(v, &mode); err == nil && mode.Valid() {
			doc.AppearanceMode = mode
		}
	}

	if v, ok := raw["window_size"]; ok {
		var size WindowSize
		if err := json.Unmarshal(v, &size); err == nil && size.Validate() == nil {
			doc.WindowSize = size
		}
	}

	if v, ok := raw["last_volume"]; ok {
		var volume float64
		if err := json.Unmarshal(v, &volume); err == nil {
			doc.LastVolume = ClampVolume(int(math.Round(volume)))
		}
	}

	if v, ok := raw["last_station"]; ok {
		var name *string
		if err := json.Unmarshal(v, &name); err == nil && name != nil {
			if _, exists := doc.Stations.Get(*name); exists {
				doc.LastStation = name
			}
		}
	}

	return doc, nil
}
