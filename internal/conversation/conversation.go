package conversation

import (
	"encoding/json"
	"time"

	"github.com/liorwd/calbot/internal/calendar"
	apperrors "github.com/liorwd/calbot/internal/errors"
	"github.com/liorwd/calbot/internal/nlp"
	"github.com/liorwd/calbot/internal/store"
)

// Step names the dialogue a user is in the middle of.
type Step string

const (
	StepNone           Step = ""
	StepConfirmEvent   Step = "confirm_event"
	StepChooseCalendar Step = "choose_calendar"
	StepEditEvent      Step = "edit_event"
)

// DefaultTimeout is how long a pending dialogue stays answerable.
const DefaultTimeout = 30 * time.Minute

// State is a pending multi-turn dialogue. A non-none step always carries
// the event draft needed to resume; timestamps travel through the text
// payload as RFC 3339 strings.
type State struct {
	Step      Step      `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Event *nlp.Event `json:"event,omitempty"`

	// Calendars is the numbered list shown to the user in the
	// choose_calendar step. Selection replies are 1-based indexes into it.
	Calendars []calendar.Calendar `json:"calendars,omitempty"`

	// SelectedCalendarID is set when the calendar was already resolved
	// before a confirm_event step.
	SelectedCalendarID string `json:"selected_calendar_id,omitempty"`

	// RequestedName is a calendar name the user asked for that did not
	// resolve, kept for the re-prompt.
	RequestedName string `json:"requested_name,omitempty"`

	// LowConfidence selects the hesitant confirmation phrasing.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// Expired reports whether the state is too old to act on.
func (s *State) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.UpdatedAt) > timeout
}

// Load reads the dialogue state stashed on the user row. It returns nil
// when there is no active dialogue or the stash has expired. A stash that
// cannot be decoded, or that breaks the step/payload invariant, returns
// ErrStateCorrupted so the caller can clear it and ask the user to retry.
func Load(user *store.User, now time.Time, timeout time.Duration) (*State, error) {
	step := Step(user.ConversationStep)
	if step == StepNone {
		return nil, nil
	}

	st := &State{Step: step}
	if user.ConversationUpdatedAt != nil {
		st.UpdatedAt = *user.ConversationUpdatedAt
	}
	if st.Expired(now, timeout) {
		return nil, nil
	}

	if err := json.Unmarshal([]byte(user.ConversationPayload), st); err != nil {
		return nil, apperrors.ErrStateCorrupted
	}
	if st.Event == nil {
		return nil, apperrors.ErrStateCorrupted
	}
	if st.Step == StepChooseCalendar && len(st.Calendars) == 0 {
		return nil, apperrors.ErrStateCorrupted
	}
	return st, nil
}

// Save stashes the state on the user row. The caller persists the row.
func Save(user *store.User, st *State, now time.Time) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	user.ConversationStep = string(st.Step)
	user.ConversationPayload = string(payload)
	user.ConversationUpdatedAt = &now
	return nil
}

// Clear removes any stashed dialogue from the user row.
func Clear(user *store.User) {
	user.ConversationStep = ""
	user.ConversationPayload = ""
	user.ConversationUpdatedAt = nil
}
