// Package sanitize derives filesystem-safe names from API-provided titles.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}-]`)
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	whitespace   = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Slug lowercases s and reduces it to letters, digits, underscores and
// hyphens, with whitespace runs collapsed to single hyphens. The result is
// truncated to 80 runes and falls back to "item" when nothing survives.
// Used for directory and metadata file names.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = strings.Trim(truncateRunes(s, 80), "-")
	if s == "" {
		return "item"
	}
	return s
}

// Filename strips Windows-illegal and control characters from name,
// collapses whitespace runs to single spaces, truncates to maxLen runes and
// drops trailing spaces. An empty result yields fallback.
func Filename(name string, maxLen int, fallback string) string {
	name = strings.TrimSpace(name)
	name = illegalChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	name = strings.TrimRight(truncateRunes(name, maxLen), " ")
	if name == "" {
		return fallback
	}
	return name
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
