package score

import (
	"strings"
	"unicode"
)

// Normalize collapses every whitespace run (newlines and the ideographic space
// included) into one ASCII space and trims both ends.
func Normalize(raw string) string {
	return strings.Join(strings.FieldsFunc(raw, unicode.IsSpace), " ")
}
