package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for backend calls
type Metrics struct {
	calls     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	fallbacks *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "backend_calls_total",
			Help:      "Backend action calls by action and outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studyroom",
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of backend action calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studyroom",
			Name:      "backend_fallbacks_total",
			Help:      "Calls answered with fixture data because the backend was unreachable.",
		}, []string{"action"}),
	}

	if reg != nil {
		reg.MustRegister(m.calls, m.duration, m.fallbacks)
	}
	return m
}

// ObserveFallback counts a fixture substitution
func (m *Metrics) ObserveFallback(action Action) {
	m.fallbacks.WithLabelValues(string(action)).Inc()
}

// CallCount returns the collector counting calls, for inspection in tests
func (m *Metrics) CallCount(action Action, outcome string) prometheus.Counter {
	return m.calls.WithLabelValues(string(action), outcome)
}

// FallbackCount returns the collector counting fallbacks, for inspection in tests
func (m *Metrics) FallbackCount(action Action) prometheus.Counter {
	return m.fallbacks.WithLabelValues(string(action))
}

// instrumented records metrics around another data source
type instrumented struct {
	next    DataSource
	metrics *Metrics
}

// Instrument wraps next so every call is counted and timed
func Instrument(next DataSource, m *Metrics) DataSource {
	return &instrumented{next: next, metrics: m}
}

func (s *instrumented) Call(ctx context.Context, action Action, params Params) (json.RawMessage, error) {
	start := time.Now()
	raw, err := s.next.Call(ctx, action, params)

	s.metrics.duration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	s.metrics.calls.WithLabelValues(string(action), outcome(err)).Inc()

	return raw, err
}

// outcome classifies a call result for the calls counter
func outcome(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrInvalidJSON):
		return "invalid_json"
	case errors.As(err, &te) && te.IsNetwork():
		return "network_error"
	case errors.As(err, &te):
		return "http_error"
	default:
		return "error"
	}
}
