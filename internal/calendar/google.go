package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/liorwd/calbot/internal/config"
	apperrors "github.com/liorwd/calbot/internal/errors"
)

const apiBase = "https://www.googleapis.com/calendar/v3"

var scopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/calendar.events",
}

// Client talks to the Google Calendar REST API. Calls that carry a token
// also report back a refreshed token when the access token was rotated
// during the call, so callers can persist it.
type Client struct {
	oauth   *oauth2.Config
	base    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	baseURL string
	log     *zap.Logger
}

// NewClient builds a calendar client from the Google section of the config.
func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}

	base := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "google-calendar",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{oauth: oauthCfg, base: base, breaker: cb, baseURL: apiBase, log: log}
}

// AuthURL returns the consent page URL for the OAuth flow.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(err, "AUTH_001", "authorization code exchange failed")
	}
	return tok, nil
}

// ParseToken deserializes a stored credentials string.
func ParseToken(data string) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, apperrors.Wrap(err, "CAL_004", "stored credentials are unreadable")
	}
	return &tok, nil
}

// EncodeToken serializes a token for storage.
func EncodeToken(tok *oauth2.Token) (string, error) {
	data, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EventInput is the payload for CreateEvent.
type EventInput struct {
	Title       string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
	Timezone    string
}

// ListWritableCalendars returns calendars the user can create events in,
// ordered primary first.
func (c *Client) ListWritableCalendars(ctx context.Context, tok *oauth2.Token) ([]Calendar, *oauth2.Token, error) {
	hc, ts := c.httpClient(ctx, tok)

	var resp calendarListResponse
	if err := c.doJSON(ctx, hc, http.MethodGet, c.baseURL+"/users/me/calendarList", nil, &resp); err != nil {
		return nil, nil, err
	}

	var calendars []Calendar
	for _, item := range resp.Items {
		if item.AccessRole != "owner" && item.AccessRole != "writer" {
			continue
		}
		if item.Selected != nil && !*item.Selected {
			continue
		}
		name := item.Summary
		if name == "" {
			name = item.ID
		}
		calendars = append(calendars, Calendar{
			ID:         item.ID,
			Name:       name,
			Primary:    item.Primary,
			AccessRole: item.AccessRole,
		})
	}
	sort.SliceStable(calendars, func(i, j int) bool {
		return calendars[i].Primary && !calendars[j].Primary
	})

	return calendars, rotated(tok, ts), nil
}

// CreateEvent inserts an event and returns its provider-assigned ID.
func (c *Client) CreateEvent(ctx context.Context, tok *oauth2.Token, calendarID string, in EventInput) (string, *oauth2.Token, error) {
	hc, ts := c.httpClient(ctx, tok)

	body := map[string]any{
		"summary": in.Title,
		"start": map[string]string{
			"dateTime": in.Start.Format(time.RFC3339),
			"timeZone": in.Timezone,
		},
		"end": map[string]string{
			"dateTime": in.End.Format(time.RFC3339),
			"timeZone": in.Timezone,
		},
	}
	if in.Location != "" {
		body["location"] = in.Location
	}
	if in.Description != "" {
		body["description"] = in.Description
	}

	var created struct {
		ID string `json:"id"`
	}
	endpoint := c.baseURL + "/calendars/" + url.PathEscape(calendarID) + "/events"
	if err := c.doJSON(ctx, hc, http.MethodPost, endpoint, body, &created); err != nil {
		return "", nil, err
	}

	c.log.Info("event created",
		zap.String("calendar_id", calendarID),
		zap.String("event_id", created.ID))
	return created.ID, rotated(tok, ts), nil
}

// TodayEvents lists today's events across all visible calendars.
func (c *Client) TodayEvents(ctx context.Context, tok *oauth2.Token, loc *time.Location) ([]Event, *oauth2.Token, error) {
	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return c.EventsBetween(ctx, tok, start, start.AddDate(0, 0, 1), loc)
}

// UpcomingEvents lists events from now through the next n days.
func (c *Client) UpcomingEvents(ctx context.Context, tok *oauth2.Token, days int, loc *time.Location) ([]Event, *oauth2.Token, error) {
	now := time.Now().In(loc)
	return c.EventsBetween(ctx, tok, now, now.AddDate(0, 0, days), loc)
}

// EventsBetween lists events in [from, to) from every visible calendar,
// sorted by start time. A failure on one calendar skips it rather than
// failing the whole read.
func (c *Client) EventsBetween(ctx context.Context, tok *oauth2.Token, from, to time.Time, loc *time.Location) ([]Event, *oauth2.Token, error) {
	hc, ts := c.httpClient(ctx, tok)

	var list calendarListResponse
	if err := c.doJSON(ctx, hc, http.MethodGet, c.baseURL+"/users/me/calendarList", nil, &list); err != nil {
		return nil, nil, err
	}

	var events []Event
	for _, cal := range list.Items {
		if cal.Selected != nil && !*cal.Selected {
			continue
		}
		name := cal.Summary
		if name == "" {
			name = cal.ID
		}

		q := url.Values{}
		q.Set("timeMin", from.UTC().Format(time.RFC3339))
		q.Set("timeMax", to.UTC().Format(time.RFC3339))
		q.Set("singleEvents", "true")
		q.Set("orderBy", "startTime")
		endpoint := c.baseURL + "/calendars/" + url.PathEscape(cal.ID) + "/events?" + q.Encode()

		var resp eventsResponse
		if err := c.doJSON(ctx, hc, http.MethodGet, endpoint, nil, &resp); err != nil {
			c.log.Warn("skipping calendar after read failure",
				zap.String("calendar", name), zap.Error(err))
			continue
		}

		for _, item := range resp.Items {
			ev, ok := item.toEvent(loc)
			if !ok {
				continue
			}
			ev.CalendarName = name
			events = append(events, ev)
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, rotated(tok, ts), nil
}

// httpClient builds an authenticated client whose token source refreshes
// expired access tokens transparently.
func (c *Client) httpClient(ctx context.Context, tok *oauth2.Token) (*http.Client, oauth2.TokenSource) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	ts := c.oauth.TokenSource(ctx, tok)
	return oauth2.NewClient(ctx, ts), ts
}

// rotated returns the current token when the access token changed during
// the call, nil otherwise.
func rotated(orig *oauth2.Token, ts oauth2.TokenSource) *oauth2.Token {
	cur, err := ts.Token()
	if err != nil || cur.AccessToken == orig.AccessToken {
		return nil
	}
	return cur
}

func (c *Client) doJSON(ctx context.Context, hc *http.Client, method, endpoint string, body, out any) error {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := hc.Do(req)
		if err != nil {
			return nil, apperrors.Wrap(err, "CAL_003", "calendar service unreachable")
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, apperrors.ErrTokenExpired
		case resp.StatusCode >= 400:
			return nil, apperrors.Wrap(
				fmt.Errorf("calendar api returned %d: %s", resp.StatusCode, truncate(payload, 200)),
				"CAL_003", "calendar request failed")
		}
		return payload, nil
	})
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.Wrap(err, "CAL_003", "calendar response is unreadable")
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

type calendarListResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Summary    string `json:"summary"`
		Primary    bool   `json:"primary"`
		AccessRole string `json:"accessRole"`
		Selected   *bool  `json:"selected"`
	} `json:"items"`
}

type eventsResponse struct {
	Items []eventItem `json:"items"`
}

type eventItem struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

func (it eventItem) toEvent(loc *time.Location) (Event, bool) {
	ev := Event{
		ID:          it.ID,
		Title:       it.Summary,
		Location:    it.Location,
		Description: it.Description,
	}
	if ev.Title == "" {
		ev.Title = "No title"
	}

	switch {
	case it.Start.DateTime != "":
		start, err := time.Parse(time.RFC3339, it.Start.DateTime)
		if err != nil {
			return Event{}, false
		}
		ev.Start = start.In(loc)
		if end, err := time.Parse(time.RFC3339, it.End.DateTime); err == nil {
			ev.End = end.In(loc)
		}
	case it.Start.Date != "":
		day, err := time.ParseInLocation("2006-01-02", it.Start.Date, loc)
		if err != nil {
			return Event{}, false
		}
		ev.Start = day
		ev.End = day.AddDate(0, 0, 1)
		ev.AllDay = true
	default:
		return Event{}, false
	}
	return ev, true
}
