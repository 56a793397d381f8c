package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Duration
	}{
		{"for hours", "meeting tomorrow for 2 hours", 2 * time.Hour},
		{"for minutes", "call for 45 minutes", 45 * time.Minute},
		{"hours long", "2 hours long session", 2 * time.Hour},
		{"compact with minutes", "workshop 1h30m tomorrow", 90 * time.Minute},
		{"compact hours only", "training 2h tomorrow", 2 * time.Hour},
		{"no duration", "meeting with john tomorrow at 2pm", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDuration(tt.text))
		})
	}
}

func TestDefaultDuration(t *testing.T) {
	fallback := time.Hour

	tests := []struct {
		title string
		want  time.Duration
	}{
		{"Team Standup", 15 * time.Minute},
		{"Daily Sync", 15 * time.Minute},
		{"Lunch With Sarah", time.Hour},
		{"Coffee Break", time.Hour},
		{"Doctor Appointment", 30 * time.Minute},
		{"Dentist Visit", 30 * time.Minute},
		{"תור לרופא", 30 * time.Minute},
		{"Interview Prep", time.Hour},
		{"Gym Session", time.Hour},
		{"פגישה עם יונתן", time.Hour},
		{"Meeting With John", time.Hour},
		{"Something Else", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultDuration(tt.title, fallback))
		})
	}
}
