// Package metrics exposes Prometheus collectors for booking and scheduling.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	ticketsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "tickets_booked_total",
		Help:      "Tickets flipped to booked.",
	})

	bookingRevenue = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "booking_revenue_total",
		Help:      "Sum of committed transaction totals.",
	})

	bookingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cinema",
		Name:      "booking_duration_seconds",
		Help:      "Time spent committing a booking.",
		Buckets:   prometheus.DefBuckets,
	})

	showtimes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "showtime_operations_total",
		Help:      "Showtime create/update/delete by outcome.",
	}, []string{"operation", "outcome"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cinema",
		Name:      "events_published_total",
		Help:      "Broker publishes by result.",
	}, []string{"result"})
)

// ObserveBooking records one booking attempt. tickets and total are only
// counted for successful attempts.
func ObserveBooking(outcome string, tickets int, total int64, took time.Duration) {
	bookings.WithLabelValues(outcome).Inc()
	bookingDuration.Observe(took.Seconds())
	if outcome == OutcomeSuccess {
		ticketsBooked.Add(float64(tickets))
		bookingRevenue.Add(float64(total))
	}
}

func ObserveShowtime(operation, outcome string) {
	showtimes.WithLabelValues(operation, outcome).Inc()
}

func ObservePublish(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("failed").Inc()
		return
	}
	eventsPublished.WithLabelValues("ok").Inc()
}
