package bot

import (
	"fmt"
	"strings"

	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/i18n"
)

// formatCalendarList renders the numbered list for the choose_calendar
// prompt. The primary calendar gets the marker referenced in the
// template footer.
func formatCalendarList(calendars []calendar.Calendar) string {
	var b strings.Builder
	for i, cal := range calendars {
		marker := ""
		if cal.Primary {
			marker = " 🔹"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, cal.Name, marker)
	}
	return b.String()
}

// formatEventList renders events for the today and upcoming commands,
// grouped by day when the range spans more than one.
func formatEventList(events []calendar.Event, lang i18n.Lang) string {
	var b strings.Builder
	lastDay := ""
	multiDay := spansMultipleDays(events)

	for _, ev := range events {
		if multiDay {
			day := ev.Start.Format("2006-01-02")
			if day != lastDay {
				if lastDay != "" {
					b.WriteString("\n")
				}
				b.WriteString("*" + i18n.FormatDay(ev.Start, lang) + "*\n")
				lastDay = day
			}
		}

		timeStr := ev.Start.Format("15:04")
		if ev.AllDay {
			if lang == i18n.LangHebrew {
				timeStr = "כל היום"
			} else {
				timeStr = "All day"
			}
		}

		line := fmt.Sprintf("• %s  %s", timeStr, ev.Title)
		if ev.Location != "" {
			line += " 📍 " + ev.Location
		}
		if ev.CalendarName != "" {
			line += " (" + ev.CalendarName + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func spansMultipleDays(events []calendar.Event) bool {
	if len(events) < 2 {
		return false
	}
	first := events[0].Start.Format("2006-01-02")
	for _, ev := range events[1:] {
		if ev.Start.Format("2006-01-02") != first {
			return true
		}
	}
	return false
}
