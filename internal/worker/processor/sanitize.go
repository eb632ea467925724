package processor

import "strings"

// SanitizeFilename reduces s to a single path element under a work dir.
// Separators, whitespace and control characters become '_'.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "..", "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ' ', r < 0x20:
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "input"
	}
	return s
}
