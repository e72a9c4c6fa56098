package coreengine

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional set of Prometheus counters the host application
// can register against its own registry; a nil *Metrics is always safe
// to call into; every method degrades to a no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewMetrics builds the Engine's counters under the given namespace and
// registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total requests handled by the core engine, by instruction.",
		}, []string{"instruction"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total error responses returned by the core engine, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requests, m.errors)
	return m
}

func (m *Metrics) countRequest(instruction string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(instruction).Inc()
}

func (m *Metrics) countError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}
