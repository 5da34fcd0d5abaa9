package ui

import (
	"strings"
	"testing"

	"netradio/internal/config"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		maxLen   int
		expected string
	}{
		// Basic cases
		{"short text fits", "Hello", 10, "Hello"},
		{"exact length", "Hello", 5, "Hello"},
		{"needs truncation", "Hello World", 8, "Hello..."},

		// Edge cases
		{"empty string", "", 10, ""},
		{"max zero", "Hello", 0, ""},
		{"max negative", "Hello", -5, ""},
		{"max 1", "Hello", 1, "H"},
		{"max 2", "Hello", 2, "He"},
		{"max 3", "Hello", 3, "Hel"},
		{"max 4 truncates", "Hello World", 4, "H..."},

		// Whitespace handling
		{"leading space trimmed", "  Hello", 10, "Hello"},
		{"trailing space trimmed", "Hello  ", 10, "Hello"},
		{"both spaces trimmed", "  Hello  ", 10, "Hello"},

		// Unicode (note: truncateText uses byte length, not rune count)
		// Multi-byte characters that fit within the limit work correctly
		{"unicode fits", "日本語", 10, "日本語"},
		// Note: truncateText may produce invalid UTF-8 when truncating multi-byte chars
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(tt.value, tt.maxLen)
			if got != tt.expected {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.value, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		alt      string
		expected string
	}{
		{"non-empty value", "hello", "default", "hello"},
		{"empty value", "", "default", "default"},
		{"whitespace only", "   ", "default", "default"},
		{"tabs only", "\t\t", "default", "default"},
		{"newlines only", "\n\n", "default", "default"},
		{"mixed whitespace", " \t\n ", "default", "default"},
		{"value with spaces", "  hello  ", "default", "  hello  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fallback(tt.value, tt.alt)
			if got != tt.expected {
				t.Errorf("fallback(%q, %q) = %q, want %q", tt.value, tt.alt, got, tt.expected)
			}
		})
	}
}

func TestListWindow(t *testing.T) {
	tests := []struct {
		name          string
		length        int
		selected      int
		max           int
		expectedStart int
		expectedEnd   int
	}{
		// Small list (fits entirely)
		{"small list", 5, 2, 10, 0, 5},
		{"small list at start", 3, 0, 10, 0, 3},

		// Large list
		{"large list start", 20, 0, 5, 0, 5},
		{"large list middle", 20, 10, 5, 8, 13},
		{"large list end", 20, 19, 5, 15, 20},
		{"large list near end", 20, 18, 5, 15, 20},

		// Edge cases
		{"single item", 1, 0, 5, 0, 1},
		{"max equals length", 10, 5, 10, 0, 10},
		{"selected at boundary", 10, 2, 5, 0, 5},

		// Window centering
		{"center window", 100, 50, 10, 45, 55},
		{"window shifted at start", 100, 3, 10, 0, 10},
		{"window shifted at end", 100, 97, 10, 90, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := listWindow(tt.length, tt.selected, tt.max)
			if start != tt.expectedStart || end != tt.expectedEnd {
				t.Errorf("listWindow(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.length, tt.selected, tt.max, start, end, tt.expectedStart, tt.expectedEnd)
			}
		})
	}
}

func TestJoinHeader(t *testing.T) {
	tests := []struct {
		name     string
		left     string
		right    string
		width    int
		expected string
	}{
		{"basic join", "LEFT", "RIGHT", 20, "LEFT           RIGHT"},
		{"zero width", "LEFT", "RIGHT", 0, ""},
		{"right exceeds width", "L", "VERYLONGRIGHT", 5, "VE..."},
		{"exact fit", "AB", "CD", 5, "AB CD"},
		{"left truncated", "VERYLONGLEFT", "R", 10, "VERYL... R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := joinHeader(tt.left, tt.right, tt.width)
			if got != tt.expected {
				t.Errorf("joinHeader(%q, %q, %d) = %q, want %q",
					tt.left, tt.right, tt.width, got, tt.expected)
			}
		})
	}
}

func TestInnerWidthForPanel(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{"standard width", 80, 74},
		{"narrow width", 20, 14},
		{"very narrow", 8, 6},
		{"tiny", 4, 2},
		{"minimum", 2, 2},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := innerWidthForPanel(tt.width)
			if got != tt.expected {
				t.Errorf("innerWidthForPanel(%d) = %d, want %d", tt.width, got, tt.expected)
			}
		})
	}
}

func TestMax(t *testing.T) {
	tests := []struct {
		name     string
		a        int
		b        int
		expected int
	}{
		{"a greater", 10, 5, 10},
		{"b greater", 5, 10, 10},
		{"equal", 7, 7, 7},
		{"negative a", -5, 3, 3},
		{"negative b", 3, -5, 3},
		{"both negative", -5, -3, -3},
		{"zero and positive", 0, 5, 5},
		{"zero and negative", 0, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := max(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("max(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestBoxSize(t *testing.T) {
	tests := []struct {
		name  string
		size  config.WindowSize
		termW int
		termH int
		wantW int
		wantH int
	}{
		{"fits", config.WindowSize{Width: 400, Height: 320}, 120, 40, 50, 20},
		{"clamped width", config.WindowSize{Width: 1600, Height: 320}, 80, 40, 80, 20},
		{"clamped height", config.WindowSize{Width: 400, Height: 1600}, 120, 24, 50, 24},
		{"unknown terminal", config.WindowSize{Width: 800, Height: 800}, 0, 0, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := boxSize(tt.size, tt.termW, tt.termH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("boxSize(%v, %d, %d) = %d, %d, want %d, %d",
					tt.size, tt.termW, tt.termH, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestVolumeBar(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		width  int
		filled int
	}{
		{"silent", 0, 10, 0},
		{"half", 50, 10, 5},
		{"full", 100, 10, 10},
		{"over clamps", 150, 10, 10},
		{"under clamps", -20, 10, 0},
		{"rounds down", 75, 10, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := volumeBar(tt.level, tt.width)
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("volumeBar(%d, %d) filled = %d, want %d", tt.level, tt.width, got, tt.filled)
			}
			if got := len([]rune(bar)); got != tt.width {
				t.Errorf("volumeBar(%d, %d) width = %d, want %d", tt.level, tt.width, got, tt.width)
			}
		})
	}

	if volumeBar(50, 0) != "" {
		t.Error("zero width bar should be empty")
	}
}
