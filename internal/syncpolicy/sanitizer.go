// Package syncpolicy holds the stateless rules the sync engine composes:
// query sanitizing, cache staleness, retry classification with backoff, and
// record merging. All policies are plain values, built once and passed around.
package syncpolicy

import (
	"strings"
	"unicode"
)

// DefaultMaxQueryLength bounds sanitized search input.
const DefaultMaxQueryLength = 80

// Sanitizer normalizes free text into a canonical, bounded string.
type Sanitizer struct {
	MaxLength int
}

// NewSanitizer returns a sanitizer for search queries.
func NewSanitizer() Sanitizer {
	return Sanitizer{MaxLength: DefaultMaxQueryLength}
}

// Sanitize keeps letters, numbers, whitespace, apostrophes and hyphens,
// collapses whitespace runs to one space, trims, and cuts the result to
// MaxLength characters. An empty result means "no query".
func (s Sanitizer) Sanitize(input string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
			return r
		case r == '\'', r == '-':
			return r
		}
		return -1
	}, input)

	collapsed := strings.Join(strings.Fields(kept), " ")

	limit := s.MaxLength
	if limit <= 0 {
		limit = DefaultMaxQueryLength
	}
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	// A cut right after a space would leave a trailing blank.
	return strings.TrimRight(string(runes[:limit]), " ")
}
