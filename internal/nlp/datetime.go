package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// TimeRange is the result of datetime extraction. End is the zero value when
// the text carried no explicit end time.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// HasEnd reports whether an explicit end time was extracted.
func (r *TimeRange) HasEnd() bool {
	return !r.End.IsZero()
}

type clockTime struct {
	hour, minute       int
	endHour, endMinute int
	hasEnd             bool
}

var (
	// Hebrew time phrases, most specific first.
	hebrewTimePatterns = []*regexp.Regexp{
		regexp.MustCompile(`בשעה\s+(\d{1,2}):(\d{2})`),
		regexp.MustCompile(`בשעה\s+(\d{1,2})`),
		regexp.MustCompile(`ב(\d{1,2}):(\d{2})`),
	}
	bareClockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

	rangeTimePattern  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*-\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	singleTimePattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	meridiemSuffix    = regexp.MustCompile(`(?i)^\s*(?:am|pm)`)

	hebrewScript = regexp.MustCompile(`[\x{0590}-\x{05FF}]`)
)

// DateTimeExtractor resolves date and time phrases against a reference
// instant. The reference carries the user's timezone.
type DateTimeExtractor struct {
	defaultHour int
	fallback    *when.Parser
}

// NewDateTimeExtractor creates an extractor. defaultHour fills in the clock
// time for date-only matches.
func NewDateTimeExtractor(defaultHour int) *DateTimeExtractor {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &DateTimeExtractor{
		defaultHour: defaultHour,
		fallback:    w,
	}
}

// Extract finds a start (and optional end) timestamp in normalized text.
// Strategy order: Hebrew date/time, then combined generic time + date
// patterns, then a free-text fallback parser. Returns nil when nothing
// resolves.
func (e *DateTimeExtractor) Extract(text string, now time.Time) *TimeRange {
	if r := e.extractHebrew(text, now); r != nil {
		return r
	}

	clock := extractClockTime(text)
	date, dateFound := extractDate(text, now)

	if clock != nil && dateFound {
		r := &TimeRange{Start: atTime(date, clock.hour, clock.minute)}
		if clock.hasEnd {
			r.End = atTime(date, clock.endHour, clock.endMinute)
		}
		return r
	}

	// Free-text fallback with prefer-future resolution.
	if res, err := e.fallback.Parse(text, now); err == nil && res != nil {
		t := res.Time
		if t.Before(now) {
			t = t.AddDate(0, 0, 1)
		}
		return &TimeRange{Start: t}
	}

	return nil
}

// extractHebrew handles Hebrew day tokens and "בשעה HH:MM" phrases. A bare
// HH:MM clock only counts here when the message actually contains Hebrew
// script, so English messages stay with the generic extractor.
func (e *DateTimeExtractor) extractHebrew(text string, now time.Time) *TimeRange {
	var date time.Time
	dateFound := false

	for _, d := range hebrewDays {
		if strings.Contains(text, d.token) {
			date = resolveDayToken(d.english, now)
			dateFound = true
			break
		}
	}

	clock := extractHebrewClock(text)

	switch {
	case dateFound && clock != nil:
		return &TimeRange{Start: atTime(date, clock.hour, clock.minute)}
	case dateFound:
		return &TimeRange{Start: atTime(date, e.defaultHour, 0)}
	case clock != nil:
		return &TimeRange{Start: atTime(now, clock.hour, clock.minute)}
	}

	return nil
}

func extractHebrewClock(text string) *clockTime {
	for i, re := range hebrewTimePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if i != 1 {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour <= 23 && minute <= 59 {
			return &clockTime{hour: hour, minute: minute}
		}
	}

	if hebrewScript.MatchString(text) {
		if m := bareClockPattern.FindStringSubmatch(text); m != nil {
			hour, _ := strconv.Atoi(m[1])
			minute, _ := strconv.Atoi(m[2])
			if hour <= 23 && minute <= 59 {
				return &clockTime{hour: hour, minute: minute}
			}
		}
	}

	return nil
}

// extractClockTime tries the generic time patterns in order: range with
// meridiem, single time with meridiem, bare 24-hour clock.
func extractClockTime(text string) *clockTime {
	if m := rangeTimePattern.FindStringSubmatch(text); m != nil {
		startHour, _ := strconv.Atoi(m[1])
		endHour, _ := strconv.Atoi(m[3])
		if startHour >= 1 && startHour <= 12 && endHour >= 1 && endHour <= 12 {
			ampm := strings.ToLower(m[5])
			ct := &clockTime{
				hour:    convertTo24h(startHour, ampm),
				endHour: convertTo24h(endHour, ampm),
				hasEnd:  true,
			}
			if m[2] != "" {
				ct.minute, _ = strconv.Atoi(m[2])
			}
			if m[4] != "" {
				ct.endMinute, _ = strconv.Atoi(m[4])
			}
			return ct
		}
	}

	if m := singleTimePattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 1 && hour <= 12 {
			ct := &clockTime{hour: convertTo24h(hour, strings.ToLower(m[3]))}
			if m[2] != "" {
				ct.minute, _ = strconv.Atoi(m[2])
			}
			return ct
		}
	}

	// Bare 24-hour clock, skipping matches directly followed by a meridiem.
	for _, loc := range bareClockPattern.FindAllStringSubmatchIndex(text, -1) {
		if meridiemSuffix.MatchString(text[loc[1]:]) {
			continue
		}
		hour, _ := strconv.Atoi(text[loc[2]:loc[3]])
		minute, _ := strconv.Atoi(text[loc[4]:loc[5]])
		if hour <= 23 && minute <= 59 {
			return &clockTime{hour: hour, minute: minute}
		}
	}

	return nil
}

// extractDate scans the generic date vocabulary in priority order.
func extractDate(text string, now time.Time) (time.Time, bool) {
	for _, phrase := range dateVocab {
		if strings.Contains(text, phrase) {
			return resolveDayToken(phrase, now), true
		}
	}
	return time.Time{}, false
}

// resolveDayToken maps a normalized day phrase to a concrete future date.
// Weekday names resolve to the next occurrence, never today; "next" pushes
// one week further.
func resolveDayToken(phrase string, now time.Time) time.Time {
	switch phrase {
	case "today", "tonight":
		return now
	case "tomorrow":
		return now.AddDate(0, 0, 1)
	case "day after tomorrow":
		return now.AddDate(0, 0, 2)
	}

	next := false
	day := phrase
	if rest, ok := strings.CutPrefix(phrase, "next "); ok {
		next = true
		day = rest
	} else if rest, ok := strings.CutPrefix(phrase, "this "); ok {
		day = rest
	}

	target, ok := weekdayNames[day]
	if !ok {
		return now
	}

	daysUntil := (target - int(now.Weekday()) + 7) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	if next {
		daysUntil += 7
	}
	return now.AddDate(0, 0, daysUntil)
}

func convertTo24h(hour int, ampm string) int {
	if ampm == "am" {
		if hour == 12 {
			return 0
		}
		return hour
	}
	if hour == 12 {
		return 12
	}
	return hour + 12
}

func atTime(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}
