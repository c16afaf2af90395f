package dateutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var fixed = time.Date(2026, time.March, 7, 9, 5, 3, 0, time.UTC)

// ---------------------------------------------------------------------------
// TestLayout - Token Conversion
// ---------------------------------------------------------------------------

func TestLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		want   string
	}{
		{"iso tokens", "YYYY-MM-DD", "2006-01-02"},
		{"preset", "european", "02/01/2006"},
		{"preset case-insensitive", "LONG", "January 2, 2006"},
		{"short forms", "D/M/YY", "2/1/06"},
		{"weekday", "dddd ddd", "Monday Mon"},
		{"time", "HH:mm:ss", "15:04:05"},
		{"bracket literal", "[Day] D", "Day 2"},
		{"literals kept", "YYYY.MM", "2006.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Layout(tt.format)
			if err != nil {
				t.Fatalf("Layout(%q) error = %v", tt.format, err)
			}
			if got != tt.want {
				t.Errorf("Layout(%q) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestLayout_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("Y", MaxDateFormatLength+1)},
		{"unclosed bracket", "[Date YYYY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Layout(tt.format); !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("Layout(%q) error = %v, want ErrInvalidDateFormat", tt.format, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFormat
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"", "2026-03-07"},
		{"long", "March 7, 2026"},
		{"stamp", "2026-03-07 09:05:03"},
		{"[Week of] MMM D", "Week of Mar 7"},
	}

	for _, tt := range tests {
		got, err := Format(fixed, tt.format)
		if err != nil {
			t.Fatalf("Format(%q) error = %v", tt.format, err)
		}
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
