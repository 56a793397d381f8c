package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	forHoursPattern   = regexp.MustCompile(`for\s+(\d+)\s+(?:hours?|hrs?)`)
	forMinutesPattern = regexp.MustCompile(`for\s+(\d+)\s+(?:minutes?|mins?)`)
	hoursLongPattern   = regexp.MustCompile(`(\d+)\s+(?:hours?|hrs?)\s+(?:long|meeting|session)`)
	minutesLongPattern = regexp.MustCompile(`(\d+)\s+(?:minutes?|mins?)\s+(?:long|meeting|session)`)
	compactPattern     = regexp.MustCompile(`(\d+)\s*h\s*(\d+)?m?\b`)
)

// ExtractDuration finds an explicit duration phrase in normalized text.
// Returns 0 when no phrase is present.
func ExtractDuration(text string) time.Duration {
	if m := forHoursPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Hour
	}
	if m := forMinutesPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Minute
	}
	if m := hoursLongPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Hour
	}
	if m := minutesLongPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Duration(n) * time.Minute
	}
	if m := compactPattern.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	}

	return 0
}

// defaultDurationRules map title keywords to a category default, checked in
// order.
var defaultDurationRules = []struct {
	keywords []string
	duration time.Duration
}{
	{[]string{"standup", "daily", "brief"}, 15 * time.Minute},
	{[]string{"lunch", "dinner", "coffee", "drink", "ארוחה", "קפה"}, time.Hour},
	{[]string{"doctor", "dentist", "appointment", "רופא", "רופאה", "תור"}, 30 * time.Minute},
	{[]string{"interview", "presentation", "demo"}, time.Hour},
	{[]string{"workout", "gym", "exercise", "אימון"}, time.Hour},
	{[]string{"פגישה", "meeting"}, time.Hour},
}

// DefaultDuration picks a duration for events without an explicit end time
// or duration phrase, based on title keywords.
func DefaultDuration(title string, fallback time.Duration) time.Duration {
	lower := strings.ToLower(title)

	for _, rule := range defaultDurationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.duration
			}
		}
	}

	return fallback
}
