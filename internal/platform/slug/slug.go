// Package slug turns free-form titles into file name fragments.
package slug

import (
	"regexp"
	"strings"
)

// MaxLen bounds slugs so archive paths stay well under file name limits.
const MaxLen = 48

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases input and joins its alphanumeric runs with hyphens. Long
// slugs are cut back to the last whole word that fits. Empty results fall
// back to fallback.
func Make(input, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxLen {
		s = s[:MaxLen]
		if cut := strings.LastIndexByte(s, '-'); cut > 0 {
			s = s[:cut]
		}
	}
	if s == "" {
		return fallback
	}
	return s
}
