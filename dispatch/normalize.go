package dispatch

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize composes Hangul (recognizers on macOS may return decomposed
// jamo), lowercases and trims.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(norm.NFC.String(s)))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
