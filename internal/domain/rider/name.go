// Package rider provides canonical rider-name handling.
//
// Different data sources spell the same rider inconsistently: surname-first
// versus given-name-first, diacritics present or stripped, irregular
// whitespace. Identity comparisons must therefore never use the raw display
// string; Key collapses the formatting differences into a stable lookup key
// while display names are preserved untouched for output.
package rider

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes to NFD, drops combining marks, and recomposes, so
// "Pogačar" and "Pogacar" map to the same key.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key returns a formatting-insensitive identity key for a rider name.
// It is not a global rider registry: two genuinely different riders with
// the same folded name still collide, which callers must tolerate.
func Key(name string) string {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// Reformat converts a surname-first name ("Van der Poel Mathieu") to
// given-name-first ("Mathieu Van der Poel"). The heuristic treats the last
// word as the given name, which matches how the result provider formats
// names; single-word names pass through unchanged.
func Reformat(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name
	}
	given := parts[len(parts)-1]
	surname := strings.Join(parts[:len(parts)-1], " ")
	return given + " " + surname
}
