// Package sanitizer normalizes free-form input before validation.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace
// runs to single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeDestinations trims each destination and drops empties.
func NormalizeDestinations(destinations []string) []string {
	if destinations == nil {
		return nil
	}
	out := make([]string, 0, len(destinations))
	for _, d := range destinations {
		if normalized := TrimAndNormalize(d); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
