// Package i18n holds the bilingual message catalog and date formatting
// for outgoing bot replies.
package i18n

import (
	"embed"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Lang identifies a supported reply language.
type Lang string

const (
	LangEnglish Lang = "en"
	LangHebrew  Lang = "he"
)

// Params carries substitution values for message placeholders.
type Params map[string]any

// Catalog resolves message keys to localized templates.
type Catalog struct {
	messages map[Lang]map[string]string
}

// NewCatalog loads the embedded locale files.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{messages: make(map[Lang]map[string]string)}

	for _, lang := range []Lang{LangEnglish, LangHebrew} {
		data, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", lang, err)
		}

		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", lang, err)
		}
		c.messages[lang] = msgs
	}

	return c, nil
}

// Get returns the message for key in lang with placeholders substituted.
// Missing keys fall back to English, then to a literal marker.
func (c *Catalog) Get(lang Lang, key string, params Params) string {
	tmpl, ok := c.messages[lang][key]
	if !ok {
		tmpl, ok = c.messages[LangEnglish][key]
		if !ok {
			return fmt.Sprintf("message key '%s' not found", key)
		}
	}

	for name, val := range params {
		tmpl = strings.ReplaceAll(tmpl, "{"+name+"}", fmt.Sprint(val))
	}

	return tmpl
}

// Detect classifies text as Hebrew or English. Any Hebrew character makes
// the message Hebrew; otherwise English, including digit-only input.
func Detect(text string) Lang {
	for _, r := range text {
		if r >= 0x0590 && r <= 0x05FF {
			return LangHebrew
		}
	}
	return LangEnglish
}

// HasLetters reports whether text contains any alphabetic character.
func HasLetters(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

var (
	daysHebrew = []string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}

	monthsHebrew = []string{
		"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
		"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
	}
)

// FormatEventTime renders an event's time range in the given language.
func FormatEventTime(start, end time.Time, lang Lang) string {
	if lang == LangHebrew {
		day := daysHebrew[int(start.Weekday())]
		month := monthsHebrew[int(start.Month())-1]
		return fmt.Sprintf("יום %s, %d ב%s %d בשעה %s - %s",
			day, start.Day(), month, start.Year(),
			start.Format("15:04"), end.Format("15:04"))
	}

	return fmt.Sprintf("%s at %s - %s",
		start.Format("Monday, January 02, 2006"),
		start.Format("03:04 PM"),
		end.Format("03:04 PM"))
}

// FormatDay renders a date heading for event listings.
func FormatDay(t time.Time, lang Lang) string {
	if lang == LangHebrew {
		day := daysHebrew[int(t.Weekday())]
		return fmt.Sprintf("יום %s %s", day, t.Format("02/01"))
	}
	return t.Format("Mon, Jan 02")
}
