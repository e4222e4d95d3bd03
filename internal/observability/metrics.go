package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds the console's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	AuthTransitions *prometheus.CounterVec
	GuardDecisions  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPErrors      *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_gateway_requests_total",
			Help: "Identity service calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_gateway_request_duration_seconds",
			Help:    "Identity service call latency",
			Buckets: latencyBuckets,
		}, []string{"endpoint"}),
		AuthTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_auth_transitions_total",
			Help: "Auth state transitions by event",
		}, []string{"event"}),
		GuardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_guard_decisions_total",
			Help: "Navigation guard decisions by action",
		}, []string{"action"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Console HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_http_errors_total",
			Help: "Console HTTP errors by code",
		}, []string{"route", "method", "code"}),
	}
}

// ObserveGateway records one identity service call.
func (m *Metrics) ObserveGateway(endpoint, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	m.GatewayDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RecordTransition counts an auth state event.
func (m *Metrics) RecordTransition(event string) {
	if m == nil {
		return
	}
	m.AuthTransitions.WithLabelValues(event).Inc()
}

// RecordDecision counts a guard decision.
func (m *Metrics) RecordDecision(action string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(action).Inc()
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(path, method, code).Inc()
}
