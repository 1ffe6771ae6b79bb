package sanitize

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"earnings call title", "Q3 2024 Earnings Call!!", "q3-2024-earnings-call"},
		{"empty input", "", "item"},
		{"whitespace only", "   \t  ", "item"},
		{"punctuation only", "!!??..", "item"},
		{"ticker", "MSFT", "msft"},
		{"underscores kept", "event_12345", "event_12345"},
		{"unicode letters kept", "Café Q1", "café-q1"},
		{"interior whitespace run", "FY  2025   Call", "fy-2025-call"},
		{"surrounding hyphens trimmed", " -Annual Meeting- ", "annual-meeting"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.input); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugTruncatesTo80Runes(t *testing.T) {
	long := strings.Repeat("a", 120)
	got := Slug(long)
	if len([]rune(got)) != 80 {
		t.Fatalf("Slug of 120-rune input has %d runes, want 80", len([]rune(got)))
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		fallback string
		want     string
	}{
		{"illegal chars removed", `Q3: "Earnings" <Call>?`, 140, "transcript", "Q3 Earnings Call"},
		{"path separators removed", `a/b\c|d*e`, 140, "transcript", "abcde"},
		{"whitespace collapsed", "Annual   Report\t2024", 140, "transcript", "Annual Report2024"},
		{"empty falls back", "", 140, "transcript", "transcript"},
		{"only illegal falls back", `<>:"/\|?*`, 160, "slides", "slides"},
		{"control chars removed", "a\x00b\x1fc", 140, "transcript", "abc"},
		{"case preserved", "Fiscal Year 2025", 140, "transcript", "Fiscal Year 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.input, tt.maxLen, tt.fallback); got != tt.want {
				t.Errorf("Filename(%q, %d, %q) = %q, want %q", tt.input, tt.maxLen, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestFilenameTruncatesAndTrimsTrailingSpace(t *testing.T) {
	// 9 runes of "earnings " repeated lands a space at the cut point.
	input := strings.Repeat("earnings ", 20)
	got := Filename(input, 18, "transcript")
	if got != "earnings earnings" {
		t.Fatalf("Filename truncation = %q, want %q", got, "earnings earnings")
	}
}
