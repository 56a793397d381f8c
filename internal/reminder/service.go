// Package reminder schedules and delivers event reminders. Rows are
// created per configured lead time, a cron sweep finds due rows and
// queues them, and a worker drains the queue into WhatsApp messages.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/liorwd/calbot/internal/calendar"
	"github.com/liorwd/calbot/internal/config"
	"github.com/liorwd/calbot/internal/i18n"
	"github.com/liorwd/calbot/internal/metrics"
	"github.com/liorwd/calbot/internal/store"
)

const queueName = "reminders"

// Sender delivers a text message to a phone number.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// EventLister reads upcoming events for the periodic sync.
type EventLister interface {
	UpcomingEvents(ctx context.Context, tok *oauth2.Token, days int, loc *time.Location) ([]calendar.Event, *oauth2.Token, error)
}

type job struct {
	ReminderID string `json:"reminder_id"`
}

// Service owns the reminder lifecycle.
type Service struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	sender  Sender
	cal     EventLister
	catalog *i18n.Catalog
	metrics *metrics.Metrics

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New builds the service. Call Start to begin the sweep and worker.
func New(cfg *config.Config, log *zap.Logger, st *store.Store, sender Sender,
	cal EventLister, catalog *i18n.Catalog, m *metrics.Metrics) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:     cfg,
		log:     log,
		store:   st,
		sender:  sender,
		cal:     cal,
		catalog: catalog,
		metrics: m,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Start registers the cron jobs and launches the delivery worker.
func (s *Service) Start() error {
	if !s.cfg.Reminder.Enabled {
		s.log.Info("reminders disabled")
		return nil
	}

	checkSpec := fmt.Sprintf("@every %ds", s.cfg.Reminder.CheckEverySec)
	if _, err := s.cron.AddFunc(checkSpec, s.sweep); err != nil {
		return fmt.Errorf("failed to register reminder sweep: %w", err)
	}

	syncSpec := fmt.Sprintf("@every %dh", s.cfg.Reminder.SyncEveryHrs)
	if _, err := s.cron.AddFunc(syncSpec, s.syncAll); err != nil {
		return fmt.Errorf("failed to register reminder sync: %w", err)
	}

	s.cron.Start()
	s.wg.Add(1)
	go s.worker()

	s.log.Info("reminder service started",
		zap.Ints("lead_minutes", s.cfg.Reminder.LeadMinutes))
	return nil
}

// Stop halts the cron jobs and waits for the worker to drain.
func (s *Service) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.cancel()
	s.wg.Wait()
}

// Schedule creates one reminder row per configured lead time for a newly
// created event. Lead times already in the past are skipped. Errors are
// logged, never returned; callers treat this as fire-and-forget.
func (s *Service) Schedule(userID, eventID, title string, start time.Time) {
	now := s.now()
	for _, lead := range s.cfg.Reminder.LeadMinutes {
		remindAt := start.Add(-time.Duration(lead) * time.Minute)
		if remindAt.Before(now) {
			continue
		}
		r := &store.ScheduledReminder{
			UserID:        userID,
			EventID:       eventID,
			MinutesBefore: lead,
			EventTitle:    title,
			EventStart:    start,
			RemindAt:      remindAt,
		}
		if err := s.store.CreateReminder(r); err != nil {
			s.log.Error("failed to create reminder",
				zap.String("event_id", eventID),
				zap.Int("lead_minutes", lead),
				zap.Error(err))
		}
	}
}

// sweep queues every due reminder for delivery.
func (s *Service) sweep() {
	due, err := s.store.DueReminders(s.now())
	if err != nil {
		s.log.Error("reminder sweep failed", zap.Error(err))
		return
	}
	for _, r := range due {
		if err := s.store.Enqueue(queueName, job{ReminderID: r.ID}); err != nil {
			s.log.Error("failed to queue reminder", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		// mark immediately so the next sweep cannot queue it twice
		if err := s.store.MarkReminderSent(r.ID); err != nil {
			s.log.Error("failed to mark reminder", zap.String("id", r.ID), zap.Error(err))
		}
	}
}

// worker drains the queue and sends the messages.
func (s *Service) worker() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.drain()
		}
	}
}

func (s *Service) drain() {
	for {
		var j job
		found, err := s.store.Dequeue(queueName, &j)
		if err != nil {
			s.log.Error("reminder dequeue failed", zap.Error(err))
			return
		}
		if !found {
			return
		}
		s.deliver(j.ReminderID)
	}
}

// deliver sends one reminder message.
func (s *Service) deliver(reminderID string) {
	var r store.ScheduledReminder
	if err := s.store.DB().First(&r, "id = ?", reminderID).Error; err != nil {
		s.log.Warn("queued reminder vanished", zap.String("id", reminderID))
		return
	}

	user, err := s.store.GetUser(r.UserID)
	if err != nil {
		s.log.Warn("reminder user vanished", zap.String("user_id", r.UserID))
		return
	}

	lang := i18n.LangEnglish
	if user.Language == "he" {
		lang = i18n.LangHebrew
	}

	loc := time.UTC
	if l, err := time.LoadLocation(user.Timezone); err == nil {
		loc = l
	}
	start := r.EventStart.In(loc)

	minutes := int(time.Until(start).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	msg := s.catalog.Get(lang, "reminder", i18n.Params{
		"title":   r.EventTitle,
		"time":    i18n.FormatEventTime(start, start, lang),
		"minutes": minutes,
	})

	ctx, cancelSend := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancelSend()
	if err := s.sender.SendText(ctx, user.PhoneNumber, msg); err != nil {
		s.log.Error("reminder delivery failed",
			zap.String("reminder_id", r.ID),
			zap.String("user_id", user.ID),
			zap.Error(err))
		return
	}
	s.metrics.RemindersSent.Inc()
	s.log.Info("reminder sent",
		zap.String("user_id", user.ID),
		zap.String("event_id", r.EventID),
		zap.Int("lead_minutes", r.MinutesBefore))
}

// syncAll refreshes reminder rows from each connected user's calendar so
// events created outside the bot get reminders too. Row-level dedupe
// makes the sync idempotent.
func (s *Service) syncAll() {
	users, err := s.store.UsersWithCalendar()
	if err != nil {
		s.log.Error("reminder sync failed to list users", zap.Error(err))
		return
	}
	for i := range users {
		s.syncUser(&users[i])
	}
}

func (s *Service) syncUser(user *store.User) {
	tok, err := calendar.ParseToken(user.GoogleCredentials)
	if err != nil {
		s.log.Warn("skipping reminder sync, bad credentials",
			zap.String("user_id", user.ID))
		return
	}

	loc := time.UTC
	if l, err := time.LoadLocation(user.Timezone); err == nil {
		loc = l
	}

	ctx, cancelList := context.WithTimeout(s.ctx, time.Minute)
	defer cancelList()
	events, refreshed, err := s.cal.UpcomingEvents(ctx, tok, 7, loc)
	if err != nil {
		s.log.Warn("reminder sync failed to list events",
			zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	if refreshed != nil {
		if encoded, err := calendar.EncodeToken(refreshed); err == nil {
			user.GoogleCredentials = encoded
			if err := s.store.SaveUser(user); err != nil {
				s.log.Warn("failed to persist refreshed token", zap.Error(err))
			}
		}
	}

	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		s.Schedule(user.ID, ev.ID, ev.Title, ev.Start)
	}
}
