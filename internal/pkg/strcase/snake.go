// Package strcase converts Go identifiers into the snake_case keys used in
// validation error payloads.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to lower snake_case. Acronyms stay
// together, so "HTTPServer" becomes "http_server" and "userID" "user_id".
func ToLowerSnake(s string) string {
	return strings.Join(words(s), "_")
}

func words(s string) []string {
	runes := []rune(s)
	out := make([]string, 0, 4)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			out = append(out, strings.ToLower(string(runes[start:end])))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' {
			flush(i)
			continue
		}
		if start >= 0 && boundary(runes, i) {
			flush(i)
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(runes))

	return out
}

// boundary reports whether a new word starts at runes[i]: lower/digit
// followed by upper, or the last upper of an acronym followed by lower.
func boundary(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
