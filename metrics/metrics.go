package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingTransitions counts lifecycle changes by the status reached,
	// including pending for newly created bookings.
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Bookings created or moved to a new status",
	}, []string{"status"})

	BookingRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_rejections_total",
		Help: "Booking operations refused by a business rule",
	}, []string{"operation", "reason"})

	RatingsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_ratings_submitted_total",
		Help: "Reviews accepted for completed bookings",
	})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_outbox_events_published_total",
		Help: "The total number of events published to Kafka",
	})

	OutboxPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_outbox_publish_errors_total",
		Help: "The total number of failed publish attempts",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_emails_sent_total",
		Help: "Booking emails sent by event type",
	}, []string{"event_type"})

	NotificationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_errors_total",
		Help: "Consumed events that could not be handled",
	})
)
