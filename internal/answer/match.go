package answer

import (
	"strings"

	"github.com/agext/levenshtein"
)

// findBestMatch returns the option closest to text by edit distance. Model
// output rarely repeats an option verbatim (casing, trailing punctuation),
// so the nearest option is picked instead of requiring an exact match.
func findBestMatch(text string, options []string) string {
	if len(options) == 0 {
		return ""
	}

	best := options[0]
	bestDist := levenshtein.Distance(strings.ToLower(text), strings.ToLower(best), nil)
	for _, opt := range options[1:] {
		d := levenshtein.Distance(strings.ToLower(text), strings.ToLower(opt), nil)
		if d < bestDist {
			best = opt
			bestDist = d
		}
	}
	return best
}
