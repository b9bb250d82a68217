package matcher

import (
	"math"
	"strings"
)

// Score rates how strongly the transcript supports an expected value on a 0-100 scale.
// A failed match never scores 0 so "attempted but failed" differs from a blank field.
func Score(expected, extracted string, matched bool) int {
	phrase := strings.ToLower(strings.TrimSpace(expected))
	if phrase == "" {
		return 0
	}
	text := strings.ToLower(extracted)

	if matched && strings.Contains(text, phrase) {
		return 95
	}

	words := strings.Fields(phrase)
	found := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			found++
		}
	}
	fraction := float64(found) / float64(len(words))

	if matched {
		return int(math.Round(fraction * 85))
	}
	if found > 0 {
		return int(math.Round(fraction * 50))
	}
	return 5
}
