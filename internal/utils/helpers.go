package utils

import (
	"strings"
	"unicode"
)

// MakeMap creates and returns a map[string]string containing a single key-value pair.
func MakeMap(key, value string) map[string]string {
	return map[string]string{key: value}
}

// CityCode returns the first two letters of the city name in upper case,
// e.g. "sample" -> "SA". Non-letters are skipped.
func CityCode(city string) string {
	code := make([]rune, 0, 2)
	for _, r := range city {
		if !unicode.IsLetter(r) {
			continue
		}
		code = append(code, unicode.ToUpper(r))
		if len(code) == 2 {
			break
		}
	}
	return string(code)
}

// CitySlug normalises a city name for use in file names and storage keys.
func CitySlug(city string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
