package matcher

import (
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
)

const (
	// BrandThreshold is the per-word similarity a brand name needs
	BrandThreshold = 0.85
	// ProductTypeThreshold is lower because product types are longer and more stylized
	ProductTypeThreshold = 0.75
)

// OCR engines commonly confuse these glyphs with letters.
var (
	confusableFold    = strings.NewReplacer("0", "o", "1", "l", "5", "s", "8", "b", "|", "l")
	altConfusableFold = strings.NewReplacer("0", "o", "1", "i", "5", "s", "8", "b", "|", "i")
)

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) measured in runes
func Similarity(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.Distance(a, b))/float64(longest)
}

// wordSimilarity compares an expected word with a transcript word, also trying
// digit-to-letter folds of the transcript word when the expected word is purely alphabetic.
func wordSimilarity(expected, candidate string) float64 {
	best := Similarity(expected, candidate)
	if best == 1.0 || hasDigit(expected) {
		return best
	}
	for _, fold := range []*strings.Replacer{confusableFold, altConfusableFold} {
		if s := Similarity(expected, fold.Replace(candidate)); s > best {
			best = s
		}
	}
	return best
}

// FuzzyContains reports whether every word of expected has a sufficiently similar
// word in text. text is expected to be normalized already.
func FuzzyContains(text, expected string, threshold float64) bool {
	search := strings.ToLower(strings.TrimSpace(expected))
	if search == "" {
		return false
	}
	if strings.Contains(text, search) {
		return true
	}

	textWords := splitWords(text)
	for _, word := range splitWords(search) {
		found := false
		for _, candidate := range textWords {
			if wordSimilarity(word, candidate) >= threshold {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitWords splits on whitespace and trims punctuation hugging each word
func splitWords(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, unicode.IsPunct)
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
