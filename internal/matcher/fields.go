// Package matcher decides whether label text satisfies each expected product field.
package matcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anime-shed/label-inspector-go/internal/textnorm"
	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// Func is the common matcher contract: normalized text, raw text and the expected value
type Func func(normalized, raw, expected string) models.FieldResult

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// MatchBrand fuzzy-matches the brand name and attaches a confidence score
func MatchBrand(normalized, raw, expected string) models.FieldResult {
	matched := FuzzyContains(normalized, expected, BrandThreshold)
	confidence := Score(expected, raw, matched)
	result := models.FieldResult{Matched: matched, Confidence: &confidence}
	if matched {
		result.Detail = fmt.Sprintf("Found %q on label (Confidence: %d%%)", expected, confidence)
	} else {
		result.Detail = fmt.Sprintf("Brand name %q not found on label (Confidence: %d%%)", expected, confidence)
	}
	return result
}

// MatchProductType fuzzy-matches the product type with a looser threshold than brand
func MatchProductType(normalized, raw, expected string) models.FieldResult {
	matched := FuzzyContains(normalized, expected, ProductTypeThreshold)
	confidence := Score(expected, raw, matched)
	result := models.FieldResult{Matched: matched, Confidence: &confidence}
	if matched {
		result.Detail = fmt.Sprintf("Found %q on label (Confidence: %d%%)", expected, confidence)
	} else {
		result.Detail = fmt.Sprintf("Product type %q not found on label (Confidence: %d%%)", expected, confidence)
	}
	return result
}

// MatchAlcoholContent looks for the expected ABV as a bare number, a percentage,
// an "alc" phrase or its proof equivalent (proof = 2 x ABV).
func MatchAlcoholContent(normalized, raw, expected string) models.FieldResult {
	notFound := models.FieldResult{Detail: fmt.Sprintf("Alcohol content %s not found on label", expected)}

	number := nonNumeric.ReplaceAllString(expected, "")
	abv, err := strconv.ParseFloat(number, 64)
	if number == "" || err != nil {
		return notFound
	}

	for _, pattern := range alcoholPatterns(number, abv) {
		if pattern.MatchString(raw) || pattern.MatchString(normalized) {
			return models.FieldResult{
				Matched: true,
				Detail:  fmt.Sprintf("Found alcohol content %s on label", expected),
			}
		}
	}
	return notFound
}

func alcoholPatterns(number string, abv float64) []*regexp.Regexp {
	n := regexp.QuoteMeta(number)
	proof := regexp.QuoteMeta(strconv.FormatFloat(abv*2, 'f', -1, 64))
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b` + n + `\b`),
		regexp.MustCompile(`(?i)` + n + `\s*%`),
		regexp.MustCompile(`(?i)alc\.?\s*` + n),
		regexp.MustCompile(`(?i)` + n + `\s*alc`),
		regexp.MustCompile(`(?i)\b` + n + `\s*proof\b`),
		regexp.MustCompile(`(?i)\b` + proof + `\s*proof`),
	}
}

// MatchNetContents compares the expected volume, unit-stripped, against the label.
// A blank expected value is reported as matched since the field is optional.
func MatchNetContents(normalized, raw, expected string) models.FieldResult {
	if strings.TrimSpace(expected) == "" {
		return models.FieldResult{Matched: true, Detail: "Net contents not specified"}
	}

	notFound := models.FieldResult{Detail: fmt.Sprintf("Net contents %q not found on label", expected)}
	number := textnorm.StripUnits(expected)
	if _, err := strconv.ParseFloat(number, 64); number == "" || err != nil {
		return notFound
	}

	compact := textnorm.StripWhitespace(raw)
	for _, pattern := range volumePatterns(number) {
		if pattern.MatchString(compact) || pattern.MatchString(normalized) {
			return models.FieldResult{
				Matched: true,
				Detail:  fmt.Sprintf("Found net contents %q on label", expected),
			}
		}
	}
	return notFound
}

func volumePatterns(number string) []*regexp.Regexp {
	// the leading guard keeps "50" from matching inside "750ml"
	n := `(?:^|[^0-9.])` + regexp.QuoteMeta(number)
	units := []string{`ml`, `milliliters?`, `fl`, `oz`, `ounces?`, `liters?`, `l\b`}
	patterns := make([]*regexp.Regexp, 0, len(units))
	for _, unit := range units {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+n+`\s*`+unit))
	}
	return patterns
}
