package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	localeTotal     *prometheus.CounterVec
	backendTotal    *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	checkoutTotal   *prometheus.CounterVec
	checkoutLatency *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		localeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "pricing",
			Name:      "locale_resolutions_total",
			Help:      "Locale resolutions by resulting locale",
		}, []string{"locale", "failed"}),
		backendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Calls to the consultation backend",
		}, []string{"op", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consult",
			Subsystem: "backend",
			Name:      "call_latency_seconds",
			Help:      "Latency of consultation backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		checkoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts by method and outcome",
		}, []string{"method", "outcome"}),
		checkoutLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consult",
			Subsystem: "checkout",
			Name:      "latency_seconds",
			Help:      "Latency of checkout initiation and confirmation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "consult",
			Subsystem: "session",
			Name:      "active",
			Help:      "Visitor sessions currently held in memory",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "consult",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status class",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "consult",
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.localeTotal, m.backendTotal, m.backendLatency,
		m.checkoutTotal, m.checkoutLatency, m.sessionsActive,
		m.httpRequests, m.httpLatency,
	)
	return m
}

func (m *BookingMetrics) ObserveLocale(locale string, failed bool) {
	if m == nil {
		return
	}
	m.localeTotal.WithLabelValues(locale, boolLabel(failed)).Inc()
}

func (m *BookingMetrics) ObserveBackendCall(op, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.backendTotal.WithLabelValues(op, outcome).Inc()
	m.backendLatency.WithLabelValues(op).Observe(seconds)
}

func (m *BookingMetrics) ObserveCheckout(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.checkoutTotal.WithLabelValues(method, outcome).Inc()
	m.checkoutLatency.WithLabelValues(method).Observe(seconds)
}

// SessionStarted and SessionEnded track the in-memory session count.
func (m *BookingMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *BookingMetrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *BookingMetrics) ObserveHTTP(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(seconds)
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
