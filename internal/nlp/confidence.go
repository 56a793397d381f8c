package nlp

import "strings"

// ScoreConfidence combines extraction signals into a 0..100 score.
// Title quality contributes up to 40 points, datetime completeness up to 40,
// location 10, and message richness 10.
func ScoreConfidence(title string, tr *TimeRange, location, originalText string) int {
	score := 0

	if title != "" {
		lower := strings.ToLower(title)
		if len(title) > 2 {
			score += 20
		}
		if containsEventKeyword(lower) {
			score += 10
		}
		if len(strings.Fields(title)) >= 2 {
			score += 10
		}
	}

	if tr != nil {
		score += 30
		if tr.HasEnd() {
			score += 10
		}
	}

	if len(location) > 1 {
		score += 10
	}

	textLower := strings.ToLower(originalText)
	if len(strings.Fields(originalText)) >= 4 {
		score += 5
	}
	for _, w := range actionWords {
		if strings.Contains(textLower, w) {
			score += 5
			break
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

func containsEventKeyword(s string) bool {
	for _, keywords := range eventKeywords {
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return true
			}
		}
	}
	return false
}
