package nlp

import (
	"regexp"
	"strings"
)

const dateTimeMarkers = `on|at|for|tomorrow|today|next|this|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{1,2}(?:am|pm)|\d{1,2}:\d{2}`

// titlePatterns capture the event phrase up to the first date/time marker.
// The pre-modifier form ("doctor appointment ...") is tried before the
// anchored form ("meeting with ...") so modifiers are not lost.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(פגישה\s+עם\s+.+?)\s+(?:מחר|היום|בשעה|\d{1,2}:\d{2})`),
	regexp.MustCompile(`(תור\s+.+?)\s+(?:מחר|היום|בשעה|\d{1,2}:\d{2})`),
	regexp.MustCompile(`(.+?)\s+(?:מחר|היום)\s+בשעה`),
	regexp.MustCompile(`(.+?\s+(?:meeting|appointment|call|session))\s+(?:` + dateTimeMarkers + `)`),
	regexp.MustCompile(`((?:meeting|call|appointment|session)\s+(?:with\s+)?.+?)\s+(?:` + dateTimeMarkers + `)`),
	regexp.MustCompile(`(.+?)\s+(?:` + dateTimeMarkers + `|מחר|היום|בשעה)`),
}

var (
	clockExprPattern   = regexp.MustCompile(`\d+:\d+|\d+\s*(?:am|pm)`)
	leadingArticle     = regexp.MustCompile(`^(?:a|an|the)\s+`)
	keywordCategoryOrder = []string{"meeting", "appointment", "social", "work", "personal"}
)

// ExtractTitle derives an event title from normalized text, using entity
// mentions from the raw message as a second strategy. Returns "" when no
// strategy yields a usable candidate.
func ExtractTitle(text string, entities []Entity) string {
	// Strategy 1: ordered regex templates.
	for _, re := range titlePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) > 1 && !isTimeExpression(candidate) && !isDateWord(candidate) {
			return cleanTitle(candidate)
		}
	}

	// Strategy 2: build a title from recognized entities.
	if events := entitiesOfType(entities, EntityEvent); len(events) > 0 {
		return events[0]
	}
	if persons := entitiesOfType(entities, EntityPerson); len(persons) > 0 {
		return "Meeting with " + strings.Join(persons, ", ")
	}
	if orgs := entitiesOfType(entities, EntityOrg); len(orgs) > 0 {
		return "Meeting with " + orgs[0]
	}

	// Strategy 3: context window around an event keyword.
	if title := keywordContextTitle(text); title != "" {
		return title
	}

	// Strategy 4: first meaningful words from the start of the message.
	return fallbackTitle(text)
}

func keywordContextTitle(text string) string {
	words := strings.Fields(text)

	for _, category := range keywordCategoryOrder {
		for _, keyword := range eventKeywords[category] {
			if !strings.Contains(text, keyword) {
				continue
			}
			for i, word := range words {
				if !strings.Contains(word, keyword) {
					continue
				}

				start := max(0, i-2)
				end := min(len(words), i+4)

				var context []string
				for _, w := range words[start:end] {
					if isTimeExpression(w) || isDateWord(w) || contextFunctionWords[w] {
						continue
					}
					context = append(context, w)
				}

				if len(context) >= 2 {
					if len(context) > 4 {
						context = context[:4]
					}
					return cleanTitle(strings.Join(context, " "))
				}
			}
		}
	}

	return ""
}

func fallbackTitle(text string) string {
	var meaningful []string

	for _, word := range strings.Fields(text) {
		if titleSkipWords[word] || isTimeExpression(word) || isDateWord(word) || len(word) <= 1 {
			continue
		}
		meaningful = append(meaningful, word)
		if len(meaningful) >= 3 {
			break
		}
	}

	if len(meaningful) == 0 {
		return ""
	}
	return cleanTitle(strings.Join(meaningful, " "))
}

func isTimeExpression(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range timeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return clockExprPattern.MatchString(lower)
}

func isDateWord(text string) bool {
	return dateWords[strings.ToLower(text)]
}

// cleanTitle strips a single leading article and title-cases the result.
func cleanTitle(title string) string {
	title = leadingArticle.ReplaceAllString(strings.TrimSpace(title), "")
	return titleCase(title)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
