package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsTotal counts create and reschedule attempts by outcome
	// (booked, invalid_request, outside_business_hours, blocked_period,
	// conflict, error).
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_bookings_total",
		Help: "Booking attempts by operation and outcome.",
	}, []string{"operation", "outcome"})

	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_appointment_transitions_total",
		Help: "Appointment status transitions by target status and outcome.",
	}, []string{"to", "outcome"})

	RemindersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salonbook_reminder_deliveries_total",
		Help: "Reminder delivery attempts by channel and status.",
	}, []string{"channel", "status"})

	ReminderSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "salonbook_reminder_sweep_seconds",
		Help:    "Duration of reminder sweeps.",
		Buckets: prometheus.DefBuckets,
	})
)
