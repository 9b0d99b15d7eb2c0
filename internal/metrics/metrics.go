package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "srisai_bookings_submitted_total",
		Help: "Total number of accepted booking submissions",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srisai_bookings_rejected_total",
		Help: "Total number of booking submissions rejected by validation",
	}, []string{"reason"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srisai_admin_login_attempts_total",
		Help: "Admin login attempts by outcome",
	}, []string{"result"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "srisai_exports_total",
		Help: "Booking exports by format",
	}, []string{"format"})

	Clears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "srisai_bookings_cleared_total",
		Help: "Number of confirmed clear-all operations",
	})
)
