package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is the reference instant used across extractor tests.
var monday = time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)

func TestExtract_DateAndTime(t *testing.T) {
	e := NewDateTimeExtractor(9)

	tests := []struct {
		name      string
		text      string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			"tomorrow with meridiem",
			"meeting with john tomorrow at 2pm",
			time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC),
			time.Time{},
		},
		{
			"weekday with meridiem",
			"doctor appointment friday 10am",
			time.Date(2024, time.June, 14, 10, 0, 0, 0, time.UTC),
			time.Time{},
		},
		{
			"24 hour clock with weekday",
			"review wednesday 14:30",
			time.Date(2024, time.June, 12, 14, 30, 0, 0, time.UTC),
			time.Time{},
		},
		{
			"time range",
			"standup tomorrow 9-9:30am",
			time.Date(2024, time.June, 11, 9, 0, 0, 0, time.UTC),
			time.Date(2024, time.June, 11, 9, 30, 0, 0, time.UTC),
		},
		{
			"pm range",
			"workshop today 2-4pm",
			time.Date(2024, time.June, 10, 14, 0, 0, 0, time.UTC),
			time.Date(2024, time.June, 10, 16, 0, 0, 0, time.UTC),
		},
		{
			"noon is 12",
			"lunch tomorrow 12pm",
			time.Date(2024, time.June, 11, 12, 0, 0, 0, time.UTC),
			time.Time{},
		},
		{
			"midnight is 0",
			"flight tomorrow 12am",
			time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC),
			time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, monday)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
		})
	}
}

func TestExtract_Hebrew(t *testing.T) {
	e := NewDateTimeExtractor(9)

	tests := []struct {
		name      string
		text      string
		wantStart time.Time
	}{
		{
			"tomorrow with hour phrase",
			"פגישה עם יונתן מחר בשעה 14:00",
			time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC),
		},
		{
			"hour phrase without minutes",
			"תור לרופא מחר בשעה 10",
			time.Date(2024, time.June, 11, 10, 0, 0, 0, time.UTC),
		},
		{
			"date only defaults to morning",
			"פגישה מחר",
			time.Date(2024, time.June, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			"day after tomorrow",
			"פגישה מחרתיים",
			time.Date(2024, time.June, 12, 9, 0, 0, 0, time.UTC),
		},
		{
			"weekday never resolves to past",
			"פגישה יום שישי בשעה 10:00",
			time.Date(2024, time.June, 14, 10, 0, 0, 0, time.UTC),
		},
		{
			"time only assumes today",
			"פגישה בשעה 16:00",
			time.Date(2024, time.June, 10, 16, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text, monday)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantStart, got.Start)
		})
	}
}

func TestExtract_BareClockDoesNotHijackEnglishDates(t *testing.T) {
	e := NewDateTimeExtractor(9)

	// The HH:MM clock must combine with the English weekday, not shortcut
	// to today via the Hebrew time-only branch.
	got := e.Extract("lunch with sarah next monday 12:30", monday)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.June, 24, 12, 30, 0, 0, time.UTC), got.Start)
}

func TestExtract_WeekdayPriority(t *testing.T) {
	e := NewDateTimeExtractor(9)

	// "next friday" must win over the bare "friday" vocabulary entry.
	got := e.Extract("planning next friday 3pm", monday)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.June, 21, 15, 0, 0, 0, time.UTC), got.Start)
}

func TestExtract_SameWeekdaySkipsToNextWeek(t *testing.T) {
	e := NewDateTimeExtractor(9)

	// Reference is a Monday; "monday" resolves a full week out.
	got := e.Extract("sync monday 9am", monday)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.June, 17, 9, 0, 0, 0, time.UTC), got.Start)
}

func TestExtract_TimezonePreserved(t *testing.T) {
	e := NewDateTimeExtractor(9)
	jerusalem := time.FixedZone("IST", 3*3600)
	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, jerusalem)

	got := e.Extract("meeting tomorrow at 2pm", now)
	require.NotNil(t, got)
	assert.Equal(t, jerusalem, got.Start.Location())
	assert.Equal(t, 14, got.Start.Hour())
}

func TestExtract_NoSignal(t *testing.T) {
	e := NewDateTimeExtractor(9)

	assert.Nil(t, e.Extract("just some words about nothing", monday))
}

func TestConvertTo24h(t *testing.T) {
	tests := []struct {
		hour int
		ampm string
		want int
	}{
		{12, "am", 0},
		{1, "am", 1},
		{11, "am", 11},
		{12, "pm", 12},
		{1, "pm", 13},
		{11, "pm", 23},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, convertTo24h(tt.hour, tt.ampm), "%d%s", tt.hour, tt.ampm)
	}
}
