package evaluation

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and returns its word runs in order, duplicates included.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// F1 scores the token overlap of prediction against reference. Precision and recall count the
// distinct shared tokens against the full token lists. The result is in [0, 1].
func F1(prediction, reference string) float64 {
	pred := Tokenize(prediction)
	ref := Tokenize(reference)
	if len(pred) == 0 || len(ref) == 0 {
		return 0
	}

	refSet := make(map[string]struct{}, len(ref))
	for _, t := range ref {
		refSet[t] = struct{}{}
	}
	common := make(map[string]struct{})
	for _, t := range pred {
		if _, ok := refSet[t]; ok {
			common[t] = struct{}{}
		}
	}
	if len(common) == 0 {
		return 0
	}

	precision := float64(len(common)) / float64(len(pred))
	recall := float64(len(common)) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}
