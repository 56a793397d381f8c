package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/nlp"
)

var testThresholds = Thresholds{AutoCreate: 80, Confirm: 50, Clarify: 30}

func eventWithConfidence(c int) *nlp.Event {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	return &nlp.Event{
		Title:      "Meeting With John",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Confidence: c,
	}
}

func twoCalendars() []calendar.Calendar {
	return []calendar.Calendar{
		{ID: "cal_primary", Name: "Personal", Primary: true},
		{ID: "cal_family", Name: "Family"},
	}
}

func TestDecide_ConfidenceBranches(t *testing.T) {
	single := []calendar.Calendar{{ID: "cal_primary", Name: "Personal", Primary: true}}

	tests := []struct {
		confidence    int
		action        Action
		lowConfidence bool
	}{
		{95, ActionCreate, false},
		{80, ActionCreate, false},
		{79, ActionConfirm, false},
		{50, ActionConfirm, false},
		{49, ActionConfirm, true},
		{30, ActionConfirm, true},
		{29, ActionReject, false},
		{0, ActionReject, false},
	}
	for _, tt := range tests {
		d := Decide(eventWithConfidence(tt.confidence), "", single, testThresholds)
		assert.Equal(t, tt.action, d.Action, "confidence=%d", tt.confidence)
		assert.Equal(t, tt.lowConfidence, d.LowConfidence, "confidence=%d", tt.confidence)
		if d.Action == ActionCreate || d.Action == ActionConfirm {
			require.NotNil(t, d.Calendar)
			assert.Equal(t, "cal_primary", d.Calendar.ID)
		}
	}
}

func TestDecide_MultipleCalendarsAlwaysAsk(t *testing.T) {
	// even a perfect parse must disambiguate between two calendars
	d := Decide(eventWithConfidence(100), "", twoCalendars(), testThresholds)
	assert.Equal(t, ActionChooseCalendar, d.Action)
	assert.Len(t, d.Calendars, 2)
	assert.Empty(t, d.RequestedName)
}

func TestDecide_NamedCalendarResolves(t *testing.T) {
	d := Decide(eventWithConfidence(40), "family", twoCalendars(), testThresholds)
	assert.Equal(t, ActionCreate, d.Action)
	require.NotNil(t, d.Calendar)
	assert.Equal(t, "cal_family", d.Calendar.ID)
}

func TestDecide_NamedCalendarUnresolved(t *testing.T) {
	d := Decide(eventWithConfidence(90), "work", twoCalendars(), testThresholds)
	assert.Equal(t, ActionChooseCalendar, d.Action)
	assert.Equal(t, "work", d.RequestedName)
	assert.Len(t, d.Calendars, 2)
}

func TestDecide_NoCalendarsFallsBackToPrimary(t *testing.T) {
	d := Decide(eventWithConfidence(85), "", nil, testThresholds)
	assert.Equal(t, ActionCreate, d.Action)
	require.NotNil(t, d.Calendar)
	assert.Equal(t, "primary", d.Calendar.ID)
}

func TestMatchCalendar(t *testing.T) {
	calendars := []calendar.Calendar{
		{ID: "cal_personal", Name: "Personal"},
		{ID: "cal_family", Name: "Family  Events"},
		{ID: "cal_work", Name: "Work"},
	}

	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"personal", "cal_personal", true},
		{"  Personal ", "cal_personal", true},
		{"family events", "cal_family", true},
		{"work", "cal_work", true},
		{"wor", "cal_work", true},  // 3 of 4 chars, 75%
		{"wo", "", false},          // under the 3-char floor
		{"son", "", false},         // substring but only 38% of "Personal"
		{"gym", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got := MatchCalendar(tt.name, calendars)
		if !tt.found {
			assert.Nil(t, got, "name=%q", tt.name)
			continue
		}
		require.NotNil(t, got, "name=%q", tt.name)
		assert.Equal(t, tt.want, got.ID, "name=%q", tt.name)
	}
}

func TestMatchCalendar_Hebrew(t *testing.T) {
	calendars := []calendar.Calendar{
		{ID: "cal_he", Name: "משפחה"},
	}

	got := MatchCalendar("משפחה", calendars)
	require.NotNil(t, got)
	assert.Equal(t, "cal_he", got.ID)

	// 4 of 5 runes passes the 70% rule
	got = MatchCalendar("משפח", calendars)
	require.NotNil(t, got)
	assert.Equal(t, "cal_he", got.ID)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "create", ActionCreate.String())
	assert.Equal(t, "confirm", ActionConfirm.String())
	assert.Equal(t, "choose_calendar", ActionChooseCalendar.String())
	assert.Equal(t, "reject", ActionReject.String())
}
