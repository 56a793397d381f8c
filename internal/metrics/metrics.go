package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for bot activity.
type Metrics struct {
	MessagesReceived *prometheus.CounterVec
	MessagesSent     prometheus.Counter
	SendFailures     prometheus.Counter
	ParseOutcomes    *prometheus.CounterVec
	ParseConfidence  prometheus.Histogram
	EventsCreated    prometheus.Counter
	RemindersSent    prometheus.Counter
	HandleDuration   prometheus.Histogram
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the instance registered with the global registry. It is
// created once so repeated construction cannot panic on duplicate
// registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = MustNew(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// MustNew builds and registers the collectors. Pass a fresh registry in
// tests. Registration errors panic, mirroring promauto.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "messages_received_total",
			Help:      "Inbound WhatsApp messages by detected language.",
		}, []string{"language"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "messages_sent_total",
			Help:      "Outbound WhatsApp messages delivered.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "message_send_failures_total",
			Help:      "Outbound WhatsApp messages that failed to deliver.",
		}),
		ParseOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "parse_outcomes_total",
			Help:      "Dispatch decisions by action taken.",
		}, []string{"action"}),
		ParseConfidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calbot",
			Name:      "parse_confidence",
			Help:      "Confidence scores of successfully parsed events.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "events_created_total",
			Help:      "Calendar events written.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calbot",
			Name:      "reminders_sent_total",
			Help:      "Reminder messages delivered.",
		}),
		HandleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calbot",
			Name:      "handle_duration_seconds",
			Help:      "Time spent handling one inbound message end to end.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.MessagesReceived,
		m.MessagesSent,
		m.SendFailures,
		m.ParseOutcomes,
		m.ParseConfidence,
		m.EventsCreated,
		m.RemindersSent,
		m.HandleDuration,
	)
	return m
}
