package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// City is one digest target: where to look for events and where to post them.
type City struct {
	Name    string
	Country string
	ChatID  string
}

// DisplayName capitalizes the first letter of the configured city name for headers.
func (c City) DisplayName() string {
	name := strings.TrimSpace(c.Name)
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return name
	}
	return string(unicode.ToTitle(r)) + name[size:]
}
