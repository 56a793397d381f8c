package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/liorwd/calbot/internal/config"
	apperrors "github.com/liorwd/calbot/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Google.ClientID = "client-id"
	cfg.Google.ClientSecret = "client-secret"
	cfg.Google.RedirectURL = "http://localhost/auth/google/callback"

	c := NewClient(cfg, zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func freshToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "test-access",
		Expiry:      time.Now().Add(time.Hour),
	}
}

func TestListWritableCalendars(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/calendarList", r.URL.Path)
		assert.Equal(t, "Bearer test-access", r.Header.Get("Authorization"))
		w.Write([]byte(`{"items": [
			{"id": "cal_family", "summary": "Family", "accessRole": "writer"},
			{"id": "cal_primary", "summary": "Personal", "accessRole": "owner", "primary": true},
			{"id": "cal_holidays", "summary": "Holidays", "accessRole": "reader"},
			{"id": "cal_hidden", "summary": "Hidden", "accessRole": "writer", "selected": false}
		]}`))
	}))

	calendars, refreshed, err := client.ListWritableCalendars(context.Background(), freshToken())
	require.NoError(t, err)
	assert.Nil(t, refreshed)

	require.Len(t, calendars, 2)
	assert.Equal(t, "Personal", calendars[0].Name)
	assert.True(t, calendars[0].Primary)
	assert.Equal(t, "Family", calendars[1].Name)
}

func TestCreateEvent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/cal_primary/events", r.URL.Path)
		w.Write([]byte(`{"id": "evt_12345"}`))
	}))

	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	id, _, err := client.CreateEvent(context.Background(), freshToken(), "cal_primary", EventInput{
		Title:    "Meeting With John",
		Start:    start,
		End:      start.Add(time.Hour),
		Timezone: "Asia/Jerusalem",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt_12345", id)
}

func TestCreateEvent_Unauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	start := time.Now().Add(time.Hour)
	_, _, err := client.CreateEvent(context.Background(), freshToken(), "cal_primary", EventInput{
		Title: "Dentist", Start: start, End: start.Add(time.Hour), Timezone: "UTC",
	})
	require.Error(t, err)
	assert.Equal(t, "CAL_004", apperrors.GetCode(err))
}

func TestEventsBetween(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me/calendarList":
			w.Write([]byte(`{"items": [
				{"id": "cal_primary", "summary": "Personal", "accessRole": "owner", "primary": true},
				{"id": "cal_broken", "summary": "Broken", "accessRole": "writer"}
			]}`))
		case "/calendars/cal_primary/events":
			assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
			w.Write([]byte(`{"items": [
				{"id": "e2", "summary": "Dentist",
				 "start": {"dateTime": "2026-03-10T16:00:00+02:00"},
				 "end": {"dateTime": "2026-03-10T16:30:00+02:00"}},
				{"id": "e1", "summary": "Standup", "location": "Zoom",
				 "start": {"dateTime": "2026-03-10T09:15:00+02:00"},
				 "end": {"dateTime": "2026-03-10T09:30:00+02:00"}},
				{"id": "e3", "summary": "Purim", "start": {"date": "2026-03-10"}, "end": {"date": "2026-03-11"}}
			]}`))
		case "/calendars/cal_broken/events":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	events, _, err := client.EventsBetween(context.Background(), freshToken(), from, from.AddDate(0, 0, 1), loc)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "Purim", events[0].Title)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, "Standup", events[1].Title)
	assert.Equal(t, "Zoom", events[1].Location)
	assert.Equal(t, "Dentist", events[2].Title)
	assert.Equal(t, "Personal", events[1].CalendarName)
	assert.Equal(t, 16, events[2].Start.Hour())
}

func TestTokenRoundTrip(t *testing.T) {
	tok := &oauth2.Token{
		AccessToken:  "acc",
		RefreshToken: "ref",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}
	encoded, err := EncodeToken(tok)
	require.NoError(t, err)

	decoded, err := ParseToken(encoded)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, decoded.AccessToken)
	assert.Equal(t, tok.RefreshToken, decoded.RefreshToken)
}

func TestParseToken_Corrupt(t *testing.T) {
	_, err := ParseToken("{not json")
	require.Error(t, err)
}

func TestAuthURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.Google.ClientID = "client-id"
	cfg.Google.RedirectURL = "http://localhost/auth/google/callback"
	client := NewClient(cfg, zap.NewNop())

	u := client.AuthURL("state-token")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "state=state-token")
	assert.Contains(t, u, "access_type=offline")
}
