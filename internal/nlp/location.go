package nlp

import (
	"regexp"
	"strings"
)

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:\b(?:at|in)|@)\s+([^,\s]+(?:\s+[^,\s]+)*?)(?:\s+(?:on|at|for|tomorrow|today|next|this|\d)|$)`),
	regexp.MustCompile(`\broom\s+([a-zA-Z0-9]+)`),
	regexp.MustCompile(`\boffice\s+([a-zA-Z0-9\s]+?)(?:\s+(?:on|at|for|tomorrow|today|next|this|\d)|$)`),
	regexp.MustCompile(`\bconference\s+room\s+([a-zA-Z0-9]+)`),
}

// ExtractLocation returns the first plausible location mention: entity spans
// tagged as places or organizations, then preposition/room/office captures.
// Empty string when nothing qualifies.
func ExtractLocation(text string, entities []Entity) string {
	var candidates []string

	for _, e := range entities {
		if e.Type == EntityPlace || e.Type == EntityOrg {
			candidates = append(candidates, e.Text)
		}
	}

	for _, re := range locationPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if c := strings.TrimSpace(m[1]); c != "" {
				candidates = append(candidates, c)
			}
		}
	}

	for _, c := range candidates {
		if len(c) > 1 && !isTimeExpression(c) {
			return c
		}
	}

	return ""
}
