package nlp

import (
	"regexp"
	"strings"
)

var abbrevPatterns = buildAbbrevPatterns()

func buildAbbrevPatterns() []struct {
	re   *regexp.Regexp
	full string
} {
	out := make([]struct {
		re   *regexp.Regexp
		full string
	}, 0, len(abbreviations))

	for _, a := range abbreviations {
		var expr string
		if strings.HasSuffix(a.abbrev, "/") {
			// "w/" attaches to the following word, so no trailing boundary
			expr = `\b` + regexp.QuoteMeta(a.abbrev)
		} else {
			expr = `\b` + regexp.QuoteMeta(a.abbrev) + `\b`
		}
		out = append(out, struct {
			re   *regexp.Regexp
			full string
		}{regexp.MustCompile(expr), a.full})
	}
	return out
}

// Normalize lowercases text, expands known shorthand tokens, and collapses
// whitespace. Idempotent: normalizing twice gives the same result.
func Normalize(text string) string {
	text = strings.ToLower(text)

	for _, p := range abbrevPatterns {
		text = p.re.ReplaceAllString(text, p.full)
	}

	return strings.Join(strings.Fields(text), " ")
}
