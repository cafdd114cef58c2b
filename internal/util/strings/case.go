// Package strings converts Go identifiers between naming conventions
package strings

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a Go identifier to snake_case. An acronym stays one
// word (HTTPRequest -> http_request).
func ToSnakeCase(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			wordEnd := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			acronymEnd := i+1 < len(runes) && unicode.IsLower(runes[i+1]) && runes[i-1] != '_'
			if wordEnd || acronymEnd {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ToLowerCamel lowercases the leading upper-case run of a Go identifier.
// A trailing capital that starts the next word is kept (URLPath -> urlPath, ID -> id).
func ToLowerCamel(s string) string {
	runes := []rune(s)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return s
	}

	for i := 0; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		// stop before the last capital of an acronym that starts a new word
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
