package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersGenerated counts generator outcomes per meeting (sent|skipped|failed).
	RemindersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherpoint_reminders_generated_total",
			Help: "Meetings handled by the reminder generator",
		},
		[]string{"result"},
	)

	// Confirmations counts confirmation submissions by outcome
	// (sent|no_recipients|rolled_back|rejected).
	Confirmations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherpoint_reminder_confirmations_total",
			Help: "Reminder confirmation submissions",
		},
		[]string{"outcome"},
	)

	// EmailDispatches counts outbound email calls by kind (organizer|attendee)
	// and result (success|failure).
	EmailDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatherpoint_email_dispatches_total",
			Help: "Outbound email transport calls",
		},
		[]string{"kind", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatherpoint_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
