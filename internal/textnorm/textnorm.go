// Package textnorm canonicalizes OCR transcripts and expected values for matching.
package textnorm

import (
	"strings"
	"unicode"
)

// unitTokens are removed longest first so "l" never eats into "floz" or "fl.oz".
var unitTokens = []string{"fl.oz", "floz", "ml", "oz", "l"}

// Normalize lowercases text and collapses whitespace runs to a single space
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// StripUnits reduces a volume expression such as "750 mL" or "12 FL. OZ." to its number.
// Decimal points are kept so "1.75 L" becomes "1.75" and ".75 L" becomes ".75";
// only trailing points left over from abbreviations are dropped.
func StripUnits(text string) string {
	s := StripWhitespace(strings.ToLower(text))
	for _, token := range unitTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	return strings.TrimRight(s, ".")
}

// StripWhitespace removes every whitespace character
func StripWhitespace(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// Truncate returns at most n runes of text
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
