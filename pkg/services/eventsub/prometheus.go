package eventsub

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	notificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of notifications enqueued to subscribers",
			Name:      "notifications_sent_total",
			Namespace: "chainwatch",
		},
	)

	notificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of notifications dropped on full subscriber channels",
			Name:      "notifications_dropped_total",
			Namespace: "chainwatch",
		},
	)

	subscriberCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of registered subscribers",
			Name:      "subscribers",
			Namespace: "chainwatch",
		},
	)

	lastDispatchedVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Highest ledger version notifications were dispatched for",
			Name:      "last_dispatched_version",
			Namespace: "chainwatch",
		},
	)
)

func init() {
	prometheus.MustRegister(
		notificationsSent,
		notificationsDropped,
		subscriberCount,
		lastDispatchedVersion,
	)
}

func updateSubscriberCountMetric(count int) {
	subscriberCount.Set(float64(count))
}

func updateLastDispatchedVersionMetric(version uint64) {
	lastDispatchedVersion.Set(float64(version))
}
