package nlp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestParser() *Parser {
	return NewParser(zap.NewNop(), 9, time.Hour)
}

func TestParse_MeetingTomorrow(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("Meeting with John tomorrow at 2pm", monday)
	require.NotNil(t, ev)

	assert.Equal(t, "Meeting With John", ev.Title)
	assert.Equal(t, time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC), ev.StartTime)
	assert.Equal(t, time.Date(2024, time.June, 11, 15, 0, 0, 0, time.UTC), ev.EndTime)
	assert.Empty(t, ev.Location)
	assert.GreaterOrEqual(t, ev.Confidence, 80)
}

func TestParse_DoctorAppointment(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("Doctor appointment Friday 10am in clinic", monday)
	require.NotNil(t, ev)

	assert.Equal(t, "Doctor Appointment", ev.Title)
	assert.Equal(t, time.Date(2024, time.June, 14, 10, 0, 0, 0, time.UTC), ev.StartTime)
	// Medical keyword defaults to a 30 minute slot.
	assert.Equal(t, 30*time.Minute, ev.EndTime.Sub(ev.StartTime))
	assert.Equal(t, "clinic", ev.Location)
}

func TestParse_HebrewMeeting(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("פגישה עם יונתן מחר בשעה 14:00", monday)
	require.NotNil(t, ev)

	assert.Equal(t, "פגישה עם יונתן", ev.Title)
	assert.Equal(t, time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC), ev.StartTime)
	assert.Equal(t, time.Hour, ev.EndTime.Sub(ev.StartTime))
}

func TestParse_ExplicitRange(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("Team standup tomorrow 9-9:30am", monday)
	require.NotNil(t, ev)

	assert.Equal(t, time.Date(2024, time.June, 11, 9, 0, 0, 0, time.UTC), ev.StartTime)
	assert.Equal(t, time.Date(2024, time.June, 11, 9, 30, 0, 0, time.UTC), ev.EndTime)
}

func TestParse_ExplicitDuration(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("Planning session tomorrow at 3pm for 2 hours", monday)
	require.NotNil(t, ev)

	assert.Equal(t, 2*time.Hour, ev.EndTime.Sub(ev.StartTime))
}

func TestParse_EndAlwaysAfterStart(t *testing.T) {
	p := newTestParser()

	inputs := []string{
		"Meeting with John tomorrow at 2pm",
		"Doctor appointment Friday 10am",
		"lunch tomorrow",
		"פגישה מחר",
		"standup tomorrow 9-9:30am",
	}

	for _, input := range inputs {
		ev := p.Parse(input, monday)
		if ev == nil {
			continue
		}
		assert.True(t, ev.EndTime.After(ev.StartTime), "end not after start for %q", input)
	}
}

func TestParse_NoDateTime(t *testing.T) {
	p := newTestParser()

	assert.Nil(t, p.Parse("random words with no schedule info", monday))
}

func TestParse_StateRoundTrip(t *testing.T) {
	p := newTestParser()

	ev := p.Parse("Meeting with John tomorrow at 2pm", monday)
	require.NotNil(t, ev)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, ev.Title, back.Title)
	assert.True(t, ev.StartTime.Equal(back.StartTime))
	assert.True(t, ev.EndTime.Equal(back.EndTime))
	assert.Equal(t, ev.Confidence, back.Confidence)
}

func TestShouldAttempt(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"lunch", false},
		{"", false},
		{"   ", false},
		{"lunch tomorrow", true},
		{"14:00", true},
		{"פגישה", false},
		{"פגישה מחר", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAttempt(tt.text))
		})
	}
}

func TestExtractCalendarName(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"meeting tomorrow in calendar Work", "Work"},
		{"add to calendar Personal Stuff", "Personal Stuff"},
		{"meeting tomorrow calendar עבודה", "עבודה"},
		{"meeting tomorrow at 2pm", ""},
		{"calendar x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCalendarName(tt.text))
		})
	}
}

func TestExtractEntities(t *testing.T) {
	ents := ExtractEntities("Meeting with John Smith at the Hilton Hotel")

	persons := entitiesOfType(ents, EntityPerson)
	require.Len(t, persons, 1)
	assert.Equal(t, "John Smith", persons[0])

	places := entitiesOfType(ents, EntityPlace)
	require.Len(t, places, 1)
	assert.Equal(t, "Hilton Hotel", places[0])
}
