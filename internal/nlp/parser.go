// Package nlp turns free-form natural language (English and Hebrew) into
// structured calendar event drafts with a confidence score.
package nlp

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Event is a parsed event draft. Timestamps serialize as RFC 3339 so drafts
// survive the text-only conversation state round-trip.
type Event struct {
	Title        string    `json:"title"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Location     string    `json:"location,omitempty"`
	Confidence   int       `json:"confidence"`
	OriginalText string    `json:"original_text"`
}

// Parser extracts events from raw messages. Safe for concurrent use.
type Parser struct {
	log             *zap.Logger
	datetime        *DateTimeExtractor
	defaultDuration time.Duration
}

// NewParser creates a parser. defaultHour fills date-only matches,
// defaultDuration applies when neither an end time nor a duration phrase nor
// a category default is found.
func NewParser(log *zap.Logger, defaultHour int, defaultDuration time.Duration) *Parser {
	return &Parser{
		log:             log,
		datetime:        NewDateTimeExtractor(defaultHour),
		defaultDuration: defaultDuration,
	}
}

// Parse converts a raw message into an event draft, or nil when the message
// does not describe a schedulable event. now carries the user's timezone and
// anchors relative dates.
func (p *Parser) Parse(raw string, now time.Time) *Event {
	text := Normalize(raw)
	entities := ExtractEntities(raw)

	tr := p.datetime.Extract(text, now)
	if tr == nil {
		p.log.Debug("no datetime found", zap.String("text", text))
		return nil
	}

	title := ExtractTitle(text, entities)
	if title == "" {
		p.log.Debug("no title found", zap.String("text", text))
		return nil
	}

	end := tr.End
	if end.IsZero() {
		dur := ExtractDuration(text)
		if dur == 0 {
			dur = DefaultDuration(title, p.defaultDuration)
		}
		end = tr.Start.Add(dur)
	}

	location := ExtractLocation(text, entities)
	confidence := ScoreConfidence(title, tr, location, text)

	p.log.Debug("parsed event",
		zap.String("title", title),
		zap.Time("start", tr.Start),
		zap.Time("end", end),
		zap.String("location", location),
		zap.Int("confidence", confidence))

	return &Event{
		Title:        title,
		StartTime:    tr.Start,
		EndTime:      end,
		Location:     location,
		Confidence:   confidence,
		OriginalText: text,
	}
}

var digitPattern = regexp.MustCompile(`\d`)

// ShouldAttempt gates parsing on minimal signal: at least two words, or a
// digit that could be a clock time. Single bare tokens are rejected before
// any extraction runs.
func ShouldAttempt(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}
	if len(strings.Fields(text)) >= 2 {
		return true
	}
	return digitPattern.MatchString(text)
}

// calendarNamePatterns capture an explicitly named target calendar.
var calendarNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:in|to|on)\s+calendar\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)calendar\s+(.+?)\s*$`),
}

// ExtractCalendarName returns the calendar named in the message, or "" when
// none is named. Names shorter than two characters are ignored.
func ExtractCalendarName(text string) string {
	for _, re := range calendarNamePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(m[1])
			if len(name) >= 2 {
				return name
			}
		}
	}
	return ""
}
