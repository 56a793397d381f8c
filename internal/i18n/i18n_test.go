package i18n

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Lang
	}{
		{"english sentence", "Meeting with John tomorrow at 2pm", LangEnglish},
		{"hebrew sentence", "פגישה עם יונתן מחר בשעה 14:00", LangHebrew},
		{"mixed leans hebrew", "meeting עם John", LangHebrew},
		{"digits only", "12:30", LangEnglish},
		{"empty", "", LangEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestCatalog_Get(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	msg := c.Get(LangEnglish, "event_created", Params{
		"title":      "Meeting With John",
		"time":       "Tuesday at 2pm",
		"location":   "Office",
		"calendar":   "Work",
		"confidence": 85,
	})
	assert.Contains(t, msg, "Meeting With John")
	assert.Contains(t, msg, "85%")
	assert.NotContains(t, msg, "{title}")
	assert.NotContains(t, msg, "{confidence}")

	heMsg := c.Get(LangHebrew, "not_connected", nil)
	assert.Contains(t, heMsg, "התחבר")
}

func TestCatalog_FallbackToEnglish(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	// Unknown language falls back to the English catalog.
	msg := c.Get(Lang("fr"), "welcome", nil)
	assert.Contains(t, msg, "Calendar Bot")
}

func TestCatalog_MissingKey(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	msg := c.Get(LangEnglish, "no_such_key", nil)
	assert.Contains(t, msg, "no_such_key")
}

func TestCatalog_AllKeysPresentInBothLanguages(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	for key := range c.messages[LangEnglish] {
		_, ok := c.messages[LangHebrew][key]
		assert.True(t, ok, "hebrew catalog missing key %s", key)
	}
	for key := range c.messages[LangHebrew] {
		_, ok := c.messages[LangEnglish][key]
		assert.True(t, ok, "english catalog missing key %s", key)
	}
}

func TestFormatEventTime(t *testing.T) {
	loc := time.FixedZone("IST", 2*3600)
	start := time.Date(2026, time.March, 10, 14, 0, 0, 0, loc) // a Tuesday
	end := start.Add(time.Hour)

	en := FormatEventTime(start, end, LangEnglish)
	assert.Contains(t, en, "Tuesday, March 10, 2026")
	assert.Contains(t, en, "02:00 PM")
	assert.Contains(t, en, "03:00 PM")

	he := FormatEventTime(start, end, LangHebrew)
	assert.Contains(t, he, "שלישי")
	assert.Contains(t, he, "מרץ")
	assert.Contains(t, he, "14:00")
	assert.Contains(t, he, "15:00")
}

func TestHasLetters(t *testing.T) {
	assert.True(t, HasLetters("lunch"))
	assert.True(t, HasLetters("פגישה"))
	assert.False(t, HasLetters("12:30 - 14:00"))
}

func TestCatalog_NewlineEscapes(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	msg := c.Get(LangEnglish, "auth_success", Params{"timezone": "Asia/Jerusalem"})
	assert.True(t, strings.Contains(msg, "\n"), "expected real newlines in rendered message")
	assert.Contains(t, msg, "Asia/Jerusalem")
}
