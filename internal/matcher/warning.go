package matcher

import (
	"strings"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// MinWarningFragments is how many canonical fragments a complete warning needs
const MinWarningFragments = 3

var warningKeywords = []string{"government warning", "surgeon general", "warning:"}

// warningFragments are the required pieces of the statutory health warning
var warningFragments = []string{
	"according to the surgeon general",
	"women should not drink alcoholic beverages during pregnancy",
	"birth defects",
	"consumption of alcoholic beverages impairs your ability to drive",
	"operate machinery",
	"may cause health problems",
}

// MatchGovernmentWarning detects the health warning (presence) and how much of
// its required wording survived OCR (completeness). Matched reflects presence.
func MatchGovernmentWarning(normalized string) models.WarningResult {
	present := false
	for _, keyword := range warningKeywords {
		if strings.Contains(normalized, keyword) {
			present = true
			break
		}
	}

	found := 0
	for _, fragment := range warningFragments {
		if strings.Contains(normalized, fragment) {
			found++
		}
	}

	result := models.WarningResult{
		FieldResult:    models.FieldResult{Matched: present},
		FragmentsFound: found,
		Complete:       present && found >= MinWarningFragments,
	}
	switch {
	case result.Complete:
		result.Detail = "Complete government warning statement found on label"
	case present:
		result.Detail = "Partial government warning found (missing required text)"
	default:
		result.Detail = "Government warning statement not found on label"
	}
	return result
}
