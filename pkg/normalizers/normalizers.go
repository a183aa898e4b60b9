// Package normalizers provides the canonical comparison forms of contact fields.
// Normalized values are used for matching and de-duplication only, never for display.
package normalizers

import (
	"strings"
	"unicode"
)

// NormalizePhone removes every character that is not a decimal digit.
// A value without digits normalizes to "", which never participates in a match.
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName joins given and family name, lowercases the result, trims it and
// collapses every run of whitespace to a single space.
func NormalizeName(given, family string) string {
	s := strings.ToLower(given + " " + family)
	return strings.Join(strings.Fields(s), " ")
}
