// Package bot routes inbound WhatsApp messages: bare commands, replies to
// pending dialogues, and natural-language event requests.
package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/config"
	"github.com/liorwd/calbot/internal/conversation"
	"github.com/liorwd/calbot/internal/dispatch"
	apperrors "github.com/liorwd/calbot/internal/errors"
	"github.com/liorwd/calbot/internal/i18n"
	"github.com/liorwd/calbot/internal/metrics"
	"github.com/liorwd/calbot/internal/nlp"
	"github.com/liorwd/calbot/internal/store"
)

// Sender delivers a text message to a user.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// CalendarService is the calendar collaborator. Calls that carry a token
// return a refreshed token when the access token rotated, nil otherwise.
type CalendarService interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ListWritableCalendars(ctx context.Context, tok *oauth2.Token) ([]calendar.Calendar, *oauth2.Token, error)
	CreateEvent(ctx context.Context, tok *oauth2.Token, calendarID string, in calendar.EventInput) (string, *oauth2.Token, error)
	TodayEvents(ctx context.Context, tok *oauth2.Token, loc *time.Location) ([]calendar.Event, *oauth2.Token, error)
	UpcomingEvents(ctx context.Context, tok *oauth2.Token, days int, loc *time.Location) ([]calendar.Event, *oauth2.Token, error)
}

// ReminderScheduler stashes reminder jobs for a created event. Calls are
// fire-and-forget from the bot's perspective.
type ReminderScheduler interface {
	Schedule(userID, eventID, title string, start time.Time)
}

// Handler is the message-handling core wired to its collaborators.
type Handler struct {
	cfg       *config.Config
	log       *zap.Logger
	store     *store.Store
	parser    *nlp.Parser
	cal       CalendarService
	sender    Sender
	catalog   *i18n.Catalog
	metrics   *metrics.Metrics
	reminders ReminderScheduler
	timeout   time.Duration

	now func() time.Time
}

// New wires a handler. reminders may be nil when reminders are disabled.
func New(cfg *config.Config, log *zap.Logger, st *store.Store, parser *nlp.Parser,
	cal CalendarService, sender Sender, catalog *i18n.Catalog, m *metrics.Metrics,
	reminders ReminderScheduler) *Handler {
	timeout := conversation.DefaultTimeout
	if cfg.NLP.DialogueTimeoutMin > 0 {
		timeout = time.Duration(cfg.NLP.DialogueTimeoutMin) * time.Minute
	}
	return &Handler{
		cfg:       cfg,
		log:       log,
		store:     st,
		parser:    parser,
		cal:       cal,
		sender:    sender,
		catalog:   catalog,
		metrics:   m,
		reminders: reminders,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (h *Handler) thresholds() dispatch.Thresholds {
	return dispatch.Thresholds{
		AutoCreate: h.cfg.NLP.AutoCreateThreshold,
		Confirm:    h.cfg.NLP.ConfirmThreshold,
		Clarify:    h.cfg.NLP.ClarifyThreshold,
	}
}

// HandleMessage processes one inbound message end to end and sends the
// reply. Every branch resolves to a user-facing string; errors returned
// here are delivery failures only.
func (h *Handler) HandleMessage(ctx context.Context, from, text string) error {
	started := time.Now()
	defer func() {
		h.metrics.HandleDuration.Observe(time.Since(started).Seconds())
	}()

	user, err := h.store.GetOrCreateUser(from)
	if err != nil {
		h.log.Error("user lookup failed", zap.String("from", from), zap.Error(err))
		return err
	}

	if err := h.store.SaveMessage(user.ID, "incoming", text); err != nil {
		h.log.Warn("failed to record incoming message", zap.Error(err))
	}

	lang := h.language(user, text)
	h.metrics.MessagesReceived.WithLabelValues(string(lang)).Inc()

	reply := h.route(ctx, user, lang, text)
	if reply == "" {
		return nil
	}

	if err := h.sender.SendText(ctx, user.PhoneNumber, reply); err != nil {
		h.metrics.SendFailures.Inc()
		h.log.Error("reply delivery failed",
			zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	h.metrics.MessagesSent.Inc()

	if err := h.store.SaveMessage(user.ID, "outgoing", reply); err != nil {
		h.log.Warn("failed to record outgoing message", zap.Error(err))
	}
	return nil
}

// language resolves the reply language: an explicit preference wins,
// otherwise the message script decides.
func (h *Handler) language(user *store.User, text string) i18n.Lang {
	switch user.Language {
	case "he":
		return i18n.LangHebrew
	case "en":
		return i18n.LangEnglish
	default:
		return i18n.Detect(text)
	}
}

func (h *Handler) location(user *store.User) *time.Location {
	if loc, err := time.LoadLocation(user.Timezone); err == nil {
		return loc
	}
	if loc, err := h.cfg.Location(); err == nil {
		return loc
	}
	return time.UTC
}

// route picks the reply for one message against the user's current state.
func (h *Handler) route(ctx context.Context, user *store.User, lang i18n.Lang, text string) string {
	now := h.now().In(h.location(user))

	st, err := conversation.Load(user, now, h.timeout)
	if err != nil {
		h.log.Warn("clearing corrupted conversation state",
			zap.String("user_id", user.ID), zap.Error(err))
		conversation.Clear(user)
		h.persistUser(user)
		return h.t(lang, "state_restart", nil)
	}

	if st != nil {
		switch st.Step {
		case conversation.StepConfirmEvent:
			return h.handleConfirm(ctx, user, lang, st, text, now)
		case conversation.StepChooseCalendar:
			return h.handleChoose(ctx, user, lang, st, text, now)
		case conversation.StepEditEvent:
			conversation.Clear(user)
			h.persistUser(user)
			return h.t(lang, "edit_not_supported", nil)
		}
	}

	if cmd := ParseCommand(text); cmd != CmdNone {
		return h.handleCommand(ctx, user, lang, cmd, text)
	}

	return h.handleEventRequest(ctx, user, lang, text, now)
}

// handleConfirm resolves a yes/no/edit answer to a pending draft.
func (h *Handler) handleConfirm(ctx context.Context, user *store.User, lang i18n.Lang,
	st *conversation.State, text string, now time.Time) string {
	switch conversation.ClassifyReply(text) {
	case conversation.ReplyYes:
		conversation.Clear(user)
		h.persistUser(user)
		target := st.SelectedCalendarID
		if target == "" {
			target = "primary"
		}
		return h.createEvent(ctx, user, lang, st.Event, target, "")

	case conversation.ReplyNo, conversation.ReplyCancel:
		conversation.Clear(user)
		h.persistUser(user)
		return h.t(lang, "event_cancelled", nil)

	case conversation.ReplyEdit:
		st.Step = conversation.StepEditEvent
		h.saveState(user, st, now)
		return h.t(lang, "event_edit_prompt", nil)

	default:
		return h.t(lang, "confirm_reprompt", nil)
	}
}

// handleChoose resolves a numeric calendar selection. A message that
// independently reads as a fresh event request abandons the dialogue so
// the user never gets stuck picking a number.
func (h *Handler) handleChoose(ctx context.Context, user *store.User, lang i18n.Lang,
	st *conversation.State, text string, now time.Time) string {
	if _, isNumber := conversation.ParseSelection(text); !isNumber {
		if nlp.ShouldAttempt(text) && h.parser.Parse(text, now) != nil {
			conversation.Clear(user)
			h.persistUser(user)
			return h.handleEventRequest(ctx, user, lang, text, now)
		}
	}

	if conversation.ClassifyReply(text) == conversation.ReplyCancel {
		conversation.Clear(user)
		h.persistUser(user)
		return h.t(lang, "event_cancelled", nil)
	}

	n, ok := conversation.ParseSelection(text)
	if !ok {
		return h.t(lang, "calendar_selection", i18n.Params{
			"title":         st.Event.Title,
			"time":          i18n.FormatEventTime(st.Event.StartTime, st.Event.EndTime, lang),
			"calendar_list": formatCalendarList(st.Calendars),
		})
	}
	if n < 1 || n > len(st.Calendars) {
		return h.t(lang, "calendar_choice_invalid", nil)
	}

	chosen := st.Calendars[n-1]
	conversation.Clear(user)
	h.persistUser(user)
	return h.createEvent(ctx, user, lang, st.Event, chosen.ID, chosen.Name)
}

func (h *Handler) handleCommand(ctx context.Context, user *store.User, lang i18n.Lang,
	cmd Command, text string) string {
	switch cmd {
	case CmdGreeting:
		return h.t(lang, "welcome", nil)

	case CmdHelp:
		return h.t(lang, "help_message", nil)

	case CmdToday:
		return h.listEvents(ctx, user, lang, 0)

	case CmdUpcoming:
		return h.listEvents(ctx, user, lang, 7)

	case CmdConnect:
		return h.startConnect(user, lang)

	case CmdStatus:
		if user.Connected() {
			return h.t(lang, "status_connected", i18n.Params{"timezone": user.Timezone})
		}
		return h.t(lang, "status_not_connected", nil)

	case CmdCancel:
		// no dialogue is active here, answer informationally
		return h.t(lang, "event_cancelled", nil)

	case CmdSwitchEnglish:
		user.Language = "en"
		h.persistUser(user)
		return h.t(i18n.LangEnglish, "language_switched", nil)

	case CmdSwitchHebrew:
		user.Language = "he"
		h.persistUser(user)
		return h.t(i18n.LangHebrew, "language_switched", nil)
	}

	return h.t(lang, "unknown_command", i18n.Params{"message": text})
}

// handleEventRequest runs the parse and dispatch pipeline on a free-form
// message.
func (h *Handler) handleEventRequest(ctx context.Context, user *store.User, lang i18n.Lang,
	text string, now time.Time) string {
	if !nlp.ShouldAttempt(text) {
		return h.t(lang, "unknown_command", i18n.Params{"message": text})
	}

	ev := h.parser.Parse(text, now)
	if ev == nil {
		h.metrics.ParseOutcomes.WithLabelValues(dispatch.ActionReject.String()).Inc()
		return h.t(lang, "nlp_failed", nil)
	}
	h.metrics.ParseConfidence.Observe(float64(ev.Confidence))

	if !user.Connected() {
		return h.t(lang, "not_connected", nil)
	}

	tok, err := calendar.ParseToken(user.GoogleCredentials)
	if err != nil {
		h.log.Error("stored credentials unreadable", zap.String("user_id", user.ID), zap.Error(err))
		return h.t(lang, "not_connected", nil)
	}

	calendars, refreshed, err := h.cal.ListWritableCalendars(ctx, tok)
	h.persistToken(user, refreshed)
	if err != nil {
		return h.calendarFailure(user, lang, "list calendars", err)
	}

	requested := nlp.ExtractCalendarName(ev.OriginalText)
	decision := dispatch.Decide(ev, requested, calendars, h.thresholds())
	h.metrics.ParseOutcomes.WithLabelValues(decision.Action.String()).Inc()

	switch decision.Action {
	case dispatch.ActionCreate:
		return h.createEvent(ctx, user, lang, ev, decision.Calendar.ID, decision.Calendar.Name)

	case dispatch.ActionConfirm:
		st := &conversation.State{
			Step:          conversation.StepConfirmEvent,
			Event:         ev,
			LowConfidence: decision.LowConfidence,
		}
		if decision.Calendar != nil {
			st.SelectedCalendarID = decision.Calendar.ID
		}
		h.saveState(user, st, now)

		key := "event_confirmation"
		if decision.LowConfidence {
			key = "event_confirmation_unsure"
		}
		return h.t(lang, key, i18n.Params{
			"title":      ev.Title,
			"time":       i18n.FormatEventTime(ev.StartTime, ev.EndTime, lang),
			"location":   orDash(ev.Location),
			"confidence": ev.Confidence,
		})

	case dispatch.ActionChooseCalendar:
		st := &conversation.State{
			Step:          conversation.StepChooseCalendar,
			Event:         ev,
			Calendars:     decision.Calendars,
			RequestedName: decision.RequestedName,
		}
		h.saveState(user, st, now)

		params := i18n.Params{
			"title":         ev.Title,
			"time":          i18n.FormatEventTime(ev.StartTime, ev.EndTime, lang),
			"calendar_list": formatCalendarList(decision.Calendars),
		}
		if decision.RequestedName != "" {
			params["calendar_name"] = decision.RequestedName
			return h.t(lang, "calendar_not_found", params)
		}
		return h.t(lang, "calendar_selection", params)

	default:
		return h.t(lang, "nlp_failed", nil)
	}
}

// createEvent writes the draft to the calendar and schedules reminders.
func (h *Handler) createEvent(ctx context.Context, user *store.User, lang i18n.Lang,
	ev *nlp.Event, calendarID, calendarName string) string {
	tok, err := calendar.ParseToken(user.GoogleCredentials)
	if err != nil {
		return h.t(lang, "not_connected", nil)
	}

	eventID, refreshed, err := h.cal.CreateEvent(ctx, tok, calendarID, calendar.EventInput{
		Title:       ev.Title,
		Start:       ev.StartTime,
		End:         ev.EndTime,
		Location:    ev.Location,
		Description: "Created via WhatsApp: " + ev.OriginalText,
		Timezone:    user.Timezone,
	})
	h.persistToken(user, refreshed)
	if err != nil {
		return h.calendarFailure(user, lang, "create event", err)
	}

	h.metrics.EventsCreated.Inc()
	if h.reminders != nil {
		h.reminders.Schedule(user.ID, eventID, ev.Title, ev.StartTime)
	}

	if calendarName == "" {
		calendarName = "Primary"
	}
	return h.t(lang, "event_created", i18n.Params{
		"title":      ev.Title,
		"time":       i18n.FormatEventTime(ev.StartTime, ev.EndTime, lang),
		"location":   orDash(ev.Location),
		"calendar":   calendarName,
		"confidence": ev.Confidence,
	})
}

// listEvents answers the today and upcoming commands. days == 0 means
// today only.
func (h *Handler) listEvents(ctx context.Context, user *store.User, lang i18n.Lang, days int) string {
	if !user.Connected() {
		return h.t(lang, "not_connected", nil)
	}
	tok, err := calendar.ParseToken(user.GoogleCredentials)
	if err != nil {
		return h.t(lang, "not_connected", nil)
	}

	loc := h.location(user)

	var events []calendar.Event
	var refreshed *oauth2.Token
	if days == 0 {
		events, refreshed, err = h.cal.TodayEvents(ctx, tok, loc)
	} else {
		events, refreshed, err = h.cal.UpcomingEvents(ctx, tok, days, loc)
	}
	h.persistToken(user, refreshed)
	if err != nil {
		return h.calendarFailure(user, lang, "list events", err)
	}

	if len(events) == 0 {
		if days == 0 {
			return h.t(lang, "no_events", nil)
		}
		return h.t(lang, "no_upcoming_events", nil)
	}

	header := "today_events"
	if days > 0 {
		header = "upcoming_events"
	}
	return h.t(lang, header, nil) + "\n\n" + formatEventList(events, lang)
}

// startConnect issues a one-shot OAuth state bound to the user's phone.
func (h *Handler) startConnect(user *store.User, lang i18n.Lang) string {
	state := uuid.NewString()
	if err := h.store.SetSession(state, user.PhoneNumber, 10*time.Minute); err != nil {
		h.log.Error("failed to stash oauth state", zap.Error(err))
		return h.t(lang, "calendar_error", nil)
	}
	return h.t(lang, "connect_prompt", i18n.Params{"auth_url": h.cal.AuthURL(state)})
}

// CompleteAuth finishes the OAuth flow: resolves the state back to a
// phone number, stores the credentials, and greets the user. Returns the
// page text to render in the browser.
func (h *Handler) CompleteAuth(ctx context.Context, state, code string) error {
	phone, err := h.store.GetSession(state)
	if err != nil || phone == "" {
		return apperrors.ErrUnauthorized
	}

	user, err := h.store.GetOrCreateUser(phone)
	if err != nil {
		return err
	}

	tok, err := h.cal.Exchange(ctx, code)
	if err != nil {
		return err
	}

	encoded, err := calendar.EncodeToken(tok)
	if err != nil {
		return err
	}
	user.GoogleCredentials = encoded
	if user.Timezone == "" {
		user.Timezone = h.cfg.Google.Timezone
	}
	if err := h.store.SaveUser(user); err != nil {
		return err
	}

	lang := h.language(user, "")
	msg := h.t(lang, "auth_success", i18n.Params{"timezone": user.Timezone})
	if err := h.sender.SendText(ctx, user.PhoneNumber, msg); err != nil {
		h.log.Warn("auth success notice failed", zap.Error(err))
	}
	return nil
}

// DenyAuth tells the user the consent screen was declined.
func (h *Handler) DenyAuth(ctx context.Context, state string) {
	phone, err := h.store.GetSession(state)
	if err != nil || phone == "" {
		return
	}
	user, err := h.store.GetOrCreateUser(phone)
	if err != nil {
		return
	}
	lang := h.language(user, "")
	if err := h.sender.SendText(ctx, phone, h.t(lang, "auth_denied", nil)); err != nil {
		h.log.Warn("auth denied notice failed", zap.Error(err))
	}
}

// calendarFailure maps a collaborator error to a user-facing message. An
// expired token also drops the stored credentials so the user reconnects.
func (h *Handler) calendarFailure(user *store.User, lang i18n.Lang, op string, err error) string {
	h.log.Error("calendar operation failed",
		zap.String("user_id", user.ID),
		zap.String("operation", op),
		zap.Error(err))

	if apperrors.GetCode(err) == apperrors.ErrTokenExpired.Code {
		user.GoogleCredentials = ""
		h.persistUser(user)
		return h.t(lang, "not_connected", nil)
	}
	return h.t(lang, "calendar_error", nil)
}

func (h *Handler) saveState(user *store.User, st *conversation.State, now time.Time) {
	if err := conversation.Save(user, st, now); err != nil {
		h.log.Error("failed to serialize conversation state", zap.Error(err))
		return
	}
	h.persistUser(user)
}

func (h *Handler) persistUser(user *store.User) {
	if err := h.store.SaveUser(user); err != nil {
		h.log.Error("failed to persist user", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (h *Handler) persistToken(user *store.User, tok *oauth2.Token) {
	if tok == nil {
		return
	}
	encoded, err := calendar.EncodeToken(tok)
	if err != nil {
		h.log.Warn("failed to encode refreshed token", zap.Error(err))
		return
	}
	user.GoogleCredentials = encoded
	h.persistUser(user)
}

func (h *Handler) t(lang i18n.Lang, key string, params i18n.Params) string {
	return h.catalog.Get(lang, key, params)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
