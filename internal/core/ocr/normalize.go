package ocr

import (
	"regexp"
	"strings"
)

var (
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Normalize strips ruler-like noise lines and collapses every run of
// whitespace (newlines included) into a single space.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
