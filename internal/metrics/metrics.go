package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	BookingsCreated    prometheus.Counter
	BookingConflicts   prometheus.Counter
	BookingTransitions *prometheus.CounterVec
	RefundedAmount     prometheus.Counter
	LockWaitSeconds    prometheus.Histogram
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "travel_bookings_created_total",
			Help: "Total number of bookings created",
		}),
		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "travel_booking_conflicts_total",
			Help: "Booking attempts rejected because the dates were taken",
		}),
		BookingTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_booking_transitions_total",
			Help: "Booking status transitions by target status",
		}, []string{"status"}),
		RefundedAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "travel_booking_refunded_minor_units_total",
			Help: "Sum of refund amounts granted on cancellation, in minor currency units",
		}),
		LockWaitSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "travel_booking_lock_wait_seconds",
			Help:    "Time spent waiting for the per-destination booking lock",
			Buckets: prometheus.DefBuckets,
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "travel_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "travel_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) IncCreated() {
	if m != nil {
		m.BookingsCreated.Inc()
	}
}

func (m *Metrics) IncConflict() {
	if m != nil {
		m.BookingConflicts.Inc()
	}
}

func (m *Metrics) IncTransition(status string) {
	if m != nil {
		m.BookingTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) AddRefund(amount int64) {
	if m != nil && amount > 0 {
		m.RefundedAmount.Add(float64(amount))
	}
}

func (m *Metrics) ObserveLockWait(seconds float64) {
	if m != nil {
		m.LockWaitSeconds.Observe(seconds)
	}
}

func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(route, method, status).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(seconds)
	}
}
