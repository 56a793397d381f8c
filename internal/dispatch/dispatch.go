package dispatch

import (
	"regexp"
	"strings"

	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/nlp"
)

// Action is the outcome of a dispatch decision.
type Action int

const (
	// ActionReject means the parse is too weak to act on.
	ActionReject Action = iota
	// ActionCreate writes the event immediately, no dialogue.
	ActionCreate
	// ActionConfirm asks the user to approve the draft first.
	ActionConfirm
	// ActionChooseCalendar asks the user to pick a target calendar.
	ActionChooseCalendar
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionConfirm:
		return "confirm"
	case ActionChooseCalendar:
		return "choose_calendar"
	default:
		return "reject"
	}
}

// Thresholds are the confidence cut points, highest first.
type Thresholds struct {
	AutoCreate int
	Confirm    int
	Clarify    int
}

// Decision tells the caller what to do with a parsed event.
type Decision struct {
	Action Action

	// Calendar is the resolved target for ActionCreate.
	Calendar *calendar.Calendar

	// Calendars is the list to offer for ActionChooseCalendar.
	Calendars []calendar.Calendar

	// RequestedName is set when the user named a calendar that did not
	// resolve, so the prompt can mention it.
	RequestedName string

	// LowConfidence selects the hesitant confirmation phrasing.
	LowConfidence bool
}

// Decide applies the dispatch policy to a parsed event. requestedName is
// a calendar the message explicitly named, empty when none was.
//
// An explicit resolved name always creates directly. More than one
// writable calendar always asks which one, regardless of confidence.
// Only with a single unambiguous target does confidence pick between
// auto-create, confirmation, and rejection.
func Decide(ev *nlp.Event, requestedName string, calendars []calendar.Calendar, th Thresholds) Decision {
	if requestedName != "" {
		if match := MatchCalendar(requestedName, calendars); match != nil {
			return Decision{Action: ActionCreate, Calendar: match}
		}
		return Decision{
			Action:        ActionChooseCalendar,
			Calendars:     calendars,
			RequestedName: requestedName,
		}
	}

	if len(calendars) > 1 {
		return Decision{Action: ActionChooseCalendar, Calendars: calendars}
	}

	target := primaryOf(calendars)
	switch {
	case ev.Confidence >= th.AutoCreate:
		return Decision{Action: ActionCreate, Calendar: target}
	case ev.Confidence >= th.Confirm:
		return Decision{Action: ActionConfirm, Calendar: target}
	case ev.Confidence >= th.Clarify:
		return Decision{Action: ActionConfirm, Calendar: target, LowConfidence: true}
	default:
		return Decision{Action: ActionReject}
	}
}

// primaryOf picks the single target calendar. An empty list falls back to
// the provider's "primary" alias so a connected account with a filtered
// calendar list still works.
func primaryOf(calendars []calendar.Calendar) *calendar.Calendar {
	if len(calendars) > 0 {
		return &calendars[0]
	}
	return &calendar.Calendar{ID: "primary", Name: "Primary", Primary: true}
}

var innerSpace = regexp.MustCompile(`\s+`)

// MatchCalendar resolves a user-supplied calendar name, case-insensitive.
// It tries an exact match on the trimmed name, then an exact match after
// collapsing internal whitespace, then a substring match. The substring
// pass only fires when the requested name is at least 3 characters and
// covers at least 70% of the candidate's length, so "cal" cannot claim
// an arbitrary calendar.
func MatchCalendar(name string, calendars []calendar.Calendar) *calendar.Calendar {
	requested := strings.ToLower(strings.TrimSpace(name))
	if requested == "" {
		return nil
	}

	for i := range calendars {
		if strings.ToLower(strings.TrimSpace(calendars[i].Name)) == requested {
			return &calendars[i]
		}
	}

	collapsed := innerSpace.ReplaceAllString(requested, " ")
	for i := range calendars {
		candidate := innerSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(calendars[i].Name)), " ")
		if candidate == collapsed {
			return &calendars[i]
		}
	}

	if len([]rune(requested)) < 3 {
		return nil
	}
	for i := range calendars {
		candidate := strings.ToLower(strings.TrimSpace(calendars[i].Name))
		if !strings.Contains(candidate, requested) {
			continue
		}
		if float64(len([]rune(requested))) >= 0.7*float64(len([]rune(candidate))) {
			return &calendars[i]
		}
	}
	return nil
}
