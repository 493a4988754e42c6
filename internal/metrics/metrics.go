package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Injector counts what the fixture did on the wire. The counters exist for
// operator diagnostics only; nothing in the serving path depends on them.
type Injector struct {
	Connections *prometheus.CounterVec
	Requests    *prometheus.CounterVec
	Responses   *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

func NewInjector(r prometheus.Registerer, namespace string) *Injector {
	if r == nil {
		r = prometheus.NewRegistry() // This registry will be discarded.
	}
	f := promauto.With(r)

	return &Injector{
		Connections: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "connections_total",
			Namespace: namespace,
			Help:      "Number of accepted connections",
		}, []string{"state"}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "requests_total",
			Namespace: namespace,
			Help:      "Number of parsed requests by method",
		}, []string{"method"}),
		Responses: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "responses_total",
			Namespace: namespace,
			Help:      "Number of emitted responses by profile",
		}, []string{"profile"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "errors_total",
			Namespace: namespace,
			Help:      "Number of per-connection errors by reason",
		}, []string{"reason"}),
	}
}

func (m *Injector) Connection(state string) {
	m.Connections.WithLabelValues(state).Inc()
}

func (m *Injector) Request(method string) {
	m.Requests.WithLabelValues(method).Inc()
}

func (m *Injector) Response(profile string) {
	m.Responses.WithLabelValues(profile).Inc()
}

func (m *Injector) Error(reason string) {
	m.Errors.WithLabelValues(reason).Inc()
}
