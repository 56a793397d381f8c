package calendar

import "time"

// Calendar is one entry from the user's calendar list that the bot can
// write to.
type Calendar struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Primary    bool   `json:"primary"`
	AccessRole string `json:"access_role"`
}

// Event is a calendar event as read back from the provider.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AllDay       bool      `json:"all_day"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	CalendarName string    `json:"calendar_name"`
}
